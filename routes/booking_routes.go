package routes

import (
	"github.com/otienojr/park_space/handlers"
	"github.com/otienojr/park_space/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Post("/quote", handlers.QuoteBooking)
	booking.Post("", handlers.CreateBooking)
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Post("/:bookingId/dispute", handlers.DisputeBooking)
	booking.Post("/:bookingId/review", handlers.CreateReview)
	booking.Get("/:bookingId/invoice", handlers.GetInvoice)

	ownerBooking := api.Group("/owner/bookings", middleware.Protected(), middleware.OwnerRequired())
	ownerBooking.Get("", handlers.GetOwnerBookings)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
