package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/notifications"
	"github.com/otienojr/park_space/payments"
	"github.com/otienojr/park_space/services"
	"github.com/otienojr/park_space/utils"
	"github.com/otienojr/park_space/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateBookingRequest struct {
	SpaceID      string  `json:"space_id" validate:"required,uuid"`
	StartTime    string  `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime      string  `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	UseDailyRate bool    `json:"use_daily_rate,omitempty"`
	VehiclePlate *string `json:"vehicle_plate,omitempty"`
}

func quoteErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrSlotUnavailable):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidWindow), errors.Is(err, services.ErrDurationOutOfRange):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadRequest
	}
}

// QuoteBooking prices a window without reserving it. The returned numbers are
// not a hold: the authoritative check happens again inside CreateBooking's
// transaction.
func QuoteBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var space models.Space
	if err := database.DB.First(&space, "id = ?", req.SpaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Space not found"})
	}

	startTime, _ := time.Parse(time.RFC3339, req.StartTime)
	endTime, _ := time.Parse(time.RFC3339, req.EndTime)

	var existing []models.Booking
	database.DB.Where("space_id = ? AND status IN ?", space.ID, []string{"confirmed", "active"}).Find(&existing)

	quote, err := services.QuoteBooking(&space, startTime, endTime, existing, req.UseDailyRate)
	if err != nil {
		return c.Status(quoteErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(quote)
}

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startTime, _ := time.Parse(time.RFC3339, req.StartTime)
	endTime, _ := time.Parse(time.RFC3339, req.EndTime)
	if startTime.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Booking start time cannot be in the past"})
	}

	var booking models.Booking
	var payment models.Payment

	// The overlap check and the insert share one transaction, with the
	// space row locked, so two renters racing for the same window cannot
	// both win.
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var space models.Space
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&space, "id = ?", req.SpaceID).Error; err != nil {
			return errors.New("space not found")
		}
		if space.Status != "active" {
			return errors.New("this space is not accepting bookings")
		}
		if space.OwnerID == renterID {
			return errors.New("you cannot book your own space")
		}

		var existing []models.Booking
		if err := tx.Where("space_id = ? AND status IN ?", space.ID, []string{"confirmed", "active"}).Find(&existing).Error; err != nil {
			return err
		}

		quote, err := services.QuoteBooking(&space, startTime, endTime, existing, req.UseDailyRate)
		if err != nil {
			return err
		}

		refCode, err := utils.GenerateBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			SpaceID:       space.ID,
			RenterID:      renterID,
			OwnerID:       space.OwnerID,
			StartTime:     startTime,
			EndTime:       endTime,
			TotalPrice:    quote.TotalPrice,
			PlatformFee:   quote.PlatformFee,
			OwnerPayout:   quote.OwnerPayout,
			Currency:      "USD",
			ReferenceCode: refCode,
			VehiclePlate:  req.VehiclePlate,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		payment = models.Payment{
			BookingID: &booking.ID,
			UserID:    renterID,
			Amount:    booking.TotalPrice,
			Currency:  booking.Currency,
			Provider:  "stripe",
			Status:    "pending",
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return c.Status(quoteErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	intent, err := payments.CreatePaymentIntent(payment.Amount, "usd", payment.ID.String())
	if err != nil {
		log.Printf("🔥 CRITICAL: CreatePaymentIntent failed for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	payment.ProviderIntentID = &intent.ID
	database.DB.Save(&payment)

	go websocket.NotifyBookingEvent("booking_created", booking)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking":       booking,
		"payment_id":    payment.ID,
		"client_secret": intent.ClientSecret,
	})
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Space").
		Where("renter_id = ?", renterID).
		Order("start_time desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetOwnerBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Space").
		Preload("Renter").
		Where("owner_id = ?", ownerID).
		Order("start_time desc").
		Find(&bookings)

	return c.JSON(bookings)
}

// CancelBooking cancels a pending or confirmed booking. A paid booking is
// refunded in full through the provider before the records are updated.
func CancelBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.Preload("Owner").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.RenterID != renterID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if !services.CanTransitionBooking(booking.Status, "cancelled") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This booking can no longer be cancelled"})
	}
	if booking.StartTime.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot cancel a booking that has already started"})
	}

	var payment models.Payment
	hasPayment := database.DB.First(&payment, "booking_id = ?", booking.ID).Error == nil

	if booking.PaymentStatus == "paid" && hasPayment && payment.ProviderIntentID != nil {
		if _, err := payments.CreateRefund(*payment.ProviderIntentID, nil); err != nil {
			log.Printf("🔥 Stripe refund failed for payment %s: %v", payment.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Refund could not be processed, please try again."})
		}
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if booking.PaymentStatus == "paid" && hasPayment {
			if err := services.ApplyProviderStatus(tx, &payment, services.ProviderStatusRefunded, nil); err != nil {
				return err
			}
			if err := tx.First(&booking, "id = ?", booking.ID).Error; err != nil {
				return err
			}
		}
		booking.Status = "cancelled"
		return tx.Save(&booking).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	go notifications.SendEmail(booking.Owner.FullName, booking.Owner.Email, "A Booking Was Cancelled",
		fmt.Sprintf("<h1>Booking Cancelled</h1><p>Booking %s for your space has been cancelled by the renter.</p>", booking.ReferenceCode))
	go websocket.NotifyBookingEvent("booking_cancelled", booking)

	return c.JSON(fiber.Map{"message": "Booking cancelled successfully.", "booking": booking})
}

type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10"`
}

func DisputeBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var req DisputeRequest
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
	if !services.CanTransitionBooking(booking.Status, "disputed") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only active bookings can be disputed"})
	}

	booking.Status = "disputed"
	if err := database.DB.Save(&booking).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open dispute"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ?", booking.ID).Error; err == nil {
		payment.RefundReason = &req.Reason
		database.DB.Save(&payment)
	}

	go websocket.NotifyBookingEvent("booking_disputed", booking)

	return c.JSON(fiber.Map{"message": "Dispute opened. An admin will review it shortly.", "booking": booking})
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func CreateReview(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	renterID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var newReview models.Review
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.RenterID != renterID {
			return errors.New("you are not the renter for this booking")
		}
		if booking.Status != "completed" {
			return errors.New("reviews can only be submitted for completed bookings")
		}

		var existingReview models.Review
		if err := tx.Where("booking_id = ?", bookingID).First(&existingReview).Error; err == nil {
			return errors.New("a review for this booking has already been submitted")
		}

		newReview = models.Review{
			BookingID: booking.ID,
			RenterID:  renterID,
			SpaceID:   booking.SpaceID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.Create(&newReview).Error; err != nil {
			return err
		}

		var result struct {
			Avg float64
		}
		tx.Model(&models.Review{}).Where("space_id = ?", booking.SpaceID).Select("avg(rating) as avg").Scan(&result)

		return tx.Model(&models.Space{}).Where("id = ?", booking.SpaceID).Update("avg_rating", result.Avg).Error
	})

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(newReview)
}

// GetInvoice renders the booking's invoice as a PDF download. Available to
// the renter and the owner once the booking has been paid.
func GetInvoice(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.Preload("Space").Preload("Renter").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.RenterID != userID && booking.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.PaymentStatus == "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "An invoice is only available once the booking has been paid"})
	}

	pdfBytes, err := services.GenerateInvoicePDF(booking)
	if err != nil {
		log.Printf("🔥 Failed to generate invoice PDF for booking %s: %v", booking.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate invoice"})
	}

	go services.ArchiveInvoice(booking, pdfBytes)

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", booking.ReferenceCode))
	return c.Send(pdfBytes)
}
