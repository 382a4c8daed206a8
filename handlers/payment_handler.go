package handlers

import (
	"errors"
	"log"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/notifications"
	"github.com/otienojr/park_space/services"
	"github.com/otienojr/park_space/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StripeWebhookPayload is the slice of the provider event we act on: the
// intent id, our payment id from the metadata, and the reported amounts.
type StripeWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Amount   int64  `json:"amount"`
			Metadata struct {
				PaymentID string `json:"payment_id"`
			} `json:"metadata"`
			AmountRefunded int64 `json:"amount_refunded,omitempty"`
		} `json:"object"`
	} `json:"data"`
}

func providerStatusFromEvent(payload *StripeWebhookPayload) (string, bool) {
	switch payload.Type {
	case "payment_intent.succeeded":
		return services.ProviderStatusSucceeded, true
	case "payment_intent.payment_failed":
		return services.ProviderStatusFailed, true
	case "payment_intent.canceled":
		return services.ProviderStatusCancelled, true
	case "charge.refunded":
		if payload.Data.Object.AmountRefunded < payload.Data.Object.Amount {
			return services.ProviderStatusPartialRefund, true
		}
		return services.ProviderStatusRefunded, true
	default:
		return "", false
	}
}

func HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload StripeWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	providerStatus, known := providerStatusFromEvent(&payload)
	if !known {
		// Not an event we subscribe to; acknowledge so the provider
		// stops retrying.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Event ignored"})
	}

	log.Printf("Received webhook %s for intent %s (payment %s)",
		payload.Type, payload.Data.Object.ID, payload.Data.Object.Metadata.PaymentID)

	var payment models.Payment
	var err error
	if payload.Data.Object.Metadata.PaymentID != "" {
		err = database.DB.Where("id = ?", payload.Data.Object.Metadata.PaymentID).First(&payment).Error
	} else {
		err = database.DB.Where("provider_intent_id = ?", payload.Data.Object.ID).First(&payment).Error
	}
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	txnID := payload.Data.Object.ID
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return services.ApplyProviderStatus(tx, &payment, providerStatus, &txnID)
	})
	if err != nil {
		if errors.Is(err, services.ErrPaymentMismatch) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment does not reference a known booking"})
		}
		log.Printf("🔥 CRITICAL: Error reconciling webhook for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	if providerStatus == services.ProviderStatusSucceeded && payment.BookingID != nil {
		var booking models.Booking
		if err := database.DB.Preload("Renter").Preload("Owner").Preload("Space").First(&booking, "id = ?", payment.BookingID).Error; err == nil {
			go func() {
				notifications.SendEmail(booking.Renter.FullName, booking.Renter.Email, "Your Booking is Confirmed!",
					"<h1>Booking Confirmed</h1><p>Your payment was successful and your parking space is reserved. Your reference code is <b>"+booking.ReferenceCode+"</b>.</p>")
				notifications.SendEmail(booking.Owner.FullName, booking.Owner.Email, "You Have a New Booking!",
					"<h1>New Booking</h1><p>Your space \""+booking.Space.Title+"\" has been booked and paid for.</p>")
			}()
			go websocket.NotifyBookingEvent("booking_confirmed", booking)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}

// GetBookingPayment lets the renter poll the payment attached to a booking.
func GetBookingPayment(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.RenterID != userID && booking.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ?", booking.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No payment found for this booking"})
	}

	return c.JSON(payment)
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RequestRefund flags a paid, not-yet-started booking for admin review.
func RequestRefund(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.RenterID != renterID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.PaymentStatus != "paid" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only paid bookings can be refunded"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	refundStatus := "requested"
	payment.RefundStatus = &refundStatus
	payment.RefundReason = &req.Reason
	database.DB.Save(&payment)

	return c.JSON(fiber.Map{"message": "Refund request submitted successfully. An admin will review it shortly."})
}
