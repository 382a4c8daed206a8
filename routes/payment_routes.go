package routes

import (
	"github.com/otienojr/park_space/handlers"
	"github.com/otienojr/park_space/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/payments/webhook", handlers.HandlePaymentWebhook)

	payments := api.Group("/payments", middleware.Protected())
	payments.Get("/booking/:bookingId", handlers.GetBookingPayment)
	payments.Post("/booking/:bookingId/request-refund", handlers.RequestRefund)
}
