package routes

import (
	"github.com/otienojr/park_space/handlers"
	"github.com/otienojr/park_space/middleware"
	"github.com/gofiber/fiber/v2"
)

func OwnerRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	owner := api.Group("/owner", middleware.Protected(), middleware.OwnerRequired())
	owner.Get("/earnings", handlers.GetOwnerEarnings)
	owner.Post("/payouts", handlers.RequestPayout)
	owner.Get("/payouts", handlers.GetMyPayoutRequests)
}
