package handlers

import (
	"errors"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func GetOwnerEarnings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))

	var owner models.User
	if err := database.DB.First(&owner, "id = ?", ownerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var lifetimeEarnings float64
	database.DB.Model(&models.Booking{}).
		Where("owner_id = ? AND status = ?", ownerID, "completed").
		Select("COALESCE(SUM(owner_payout), 0)").
		Row().Scan(&lifetimeEarnings)

	var completedBookings int64
	database.DB.Model(&models.Booking{}).
		Where("owner_id = ? AND status = ?", ownerID, "completed").
		Count(&completedBookings)

	return c.JSON(fiber.Map{
		"current_balance":    owner.Balance,
		"lifetime_earnings":  lifetimeEarnings,
		"completed_bookings": completedBookings,
	})
}

type PayoutRequestBody struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// RequestPayout moves funds out of the owner's balance into a pending payout
// request. The deduction and the request row are written atomically so a
// double submit cannot overdraw.
func RequestPayout(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))

	var req PayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, "id = ?", ownerID).Error; err != nil {
			return errors.New("user not found")
		}
		if owner.Balance < req.Amount {
			return errors.New("insufficient balance for this payout request")
		}

		owner.Balance -= req.Amount
		if err := tx.Save(&owner).Error; err != nil {
			return err
		}

		payoutRequest := models.PayoutRequest{
			OwnerID:     ownerID,
			Amount:      req.Amount,
			Status:      "pending",
			RequestedAt: time.Now(),
		}
		return tx.Create(&payoutRequest).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Payout request submitted successfully."})
}

func GetMyPayoutRequests(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))

	var requests []models.PayoutRequest
	database.DB.Where("owner_id = ?", ownerID).Order("requested_at desc").Find(&requests)

	return c.JSON(requests)
}
