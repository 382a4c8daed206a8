package routes

import (
	"github.com/otienojr/park_space/handlers"
	"github.com/otienojr/park_space/middleware"
	"github.com/gofiber/fiber/v2"
)

func SpaceRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Anyone logged in can submit a listing; approval promotes them to owner.
	api.Post("/spaces", middleware.Protected(), handlers.CreateSpace)

	ownerSpaces := api.Group("/owner/spaces", middleware.Protected(), middleware.OwnerRequired())
	ownerSpaces.Get("", handlers.GetMySpaces)
	ownerSpaces.Put("/:spaceId", handlers.UpdateMySpace)
	ownerSpaces.Put("/:spaceId/status", handlers.SetSpaceStatus)
}
