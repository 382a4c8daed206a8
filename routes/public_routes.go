package routes

import (
	"github.com/otienojr/park_space/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	spaces := api.Group("/spaces")
	spaces.Get("", handlers.ListSpaces)
	spaces.Get("/:spaceId", handlers.GetSpace)
	spaces.Get("/:spaceId/availability", handlers.GetSpaceAvailability)
	spaces.Get("/:spaceId/reviews", handlers.GetSpaceReviews)

	api.Get("/currency/rates", handlers.GetConversionRates)
}
