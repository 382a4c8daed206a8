package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/notifications"
	"github.com/otienojr/park_space/payments"
	"github.com/otienojr/park_space/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ListPendingListings(c *fiber.Ctx) error {
	var pendingSpaces []models.Space
	if err := database.DB.Preload("Owner").Where("status = ?", "pending").Find(&pendingSpaces).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(pendingSpaces)
}

// ManageListing approves or rejects a pending space. Approving the owner's
// first listing also promotes their account from renter to owner.
func ManageListing(c *fiber.Ctx) error {
	type MgtRequest struct {
		Status string `json:"status" validate:"required,oneof=active rejected"`
	}

	var req MgtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	spaceID := c.Params("spaceId")

	var space models.Space
	if err := database.DB.First(&space, "id = ?", spaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Space listing not found"})
	}
	if space.Status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only pending listings can be approved or rejected"})
	}

	var owner models.User
	if err := database.DB.First(&owner, "id = ?", space.OwnerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Associated owner not found"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		space.Status = req.Status
		if err := tx.Save(&space).Error; err != nil {
			return err
		}

		if req.Status == "active" && owner.Role == "renter" {
			owner.Role = "owner"
			if err := tx.Save(&owner).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update listing status"})
	}

	switch req.Status {
	case "active":
		go notifications.SendEmail(
			owner.FullName,
			owner.Email,
			"Your Space Listing is Live!",
			fmt.Sprintf("<h1>Congratulations!</h1><p>Your listing \"%s\" has been approved and is now visible to renters.</p>", space.Title),
		)
	case "rejected":
		go notifications.SendEmail(
			owner.FullName,
			owner.Email,
			"Update on Your Space Listing",
			fmt.Sprintf("<h1>Listing Update</h1><p>We regret to inform you that your listing \"%s\" was not approved at this time.</p>", space.Title),
		)
	}

	return c.JSON(fiber.Map{"message": "Listing status updated successfully"})
}

type DashboardAnalyticsResponse struct {
	TotalRenters       int64            `json:"total_renters"`
	TotalOwners        int64            `json:"total_owners"`
	TotalActiveSpaces  int64            `json:"total_active_spaces"`
	TotalRevenue       float64          `json:"total_revenue"`
	TotalPlatformFees  float64          `json:"total_platform_fees"`
	BookingsLast30Days int64            `json:"bookings_last_30_days"`
	RecentBookings     []models.Booking `json:"recent_bookings"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse
	var totalRevenue, totalFees float64

	database.DB.Model(&models.User{}).Where("role = ?", "renter").Count(&response.TotalRenters)
	database.DB.Model(&models.User{}).Where("role = ?", "owner").Count(&response.TotalOwners)
	database.DB.Model(&models.Space{}).Where("status = ?", "active").Count(&response.TotalActiveSpaces)

	database.DB.Model(&models.Payment{}).Where("status = ?", "succeeded").Select("COALESCE(SUM(amount), 0)").Row().Scan(&totalRevenue)
	response.TotalRevenue = totalRevenue

	database.DB.Model(&models.Booking{}).Where("payment_status = ?", "paid").Select("COALESCE(SUM(platform_fee), 0)").Row().Scan(&totalFees)
	response.TotalPlatformFees = totalFees

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Booking{}).Where("created_at > ?", thirtyDaysAgo).Count(&response.BookingsLast30Days)

	database.DB.Order("created_at desc").Limit(5).Preload("Renter").Preload("Space").Find(&response.RecentBookings)

	return c.JSON(response)
}

func ListRefundRequests(c *fiber.Ctx) error {
	var refundPayments []models.Payment
	database.DB.Preload("Booking.Renter").Where("refund_status = ?", "requested").Find(&refundPayments)
	return c.JSON(refundPayments)
}

// ProcessRefund settles a renter's refund request. Approval refunds the
// charge at the provider, reconciles the records and cancels the booking.
func ProcessRefund(c *fiber.Ctx) error {
	paymentID := c.Params("paymentId")

	type ProcessRequest struct {
		Decision string `json:"decision" validate:"required,oneof=approve reject"`
	}
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.Preload("Booking.Renter").First(&payment, "id = ?", paymentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	if req.Decision == "approve" {
		if payment.ProviderIntentID != nil {
			if _, err := payments.CreateRefund(*payment.ProviderIntentID, nil); err != nil {
				log.Printf("🔥 Stripe refund failed for payment %s: %v", payment.ID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Provider refund failed"})
			}
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			approvedStatus := "approved"
			payment.RefundStatus = &approvedStatus
			if err := services.ApplyProviderStatus(tx, &payment, services.ProviderStatusRefunded, nil); err != nil {
				return err
			}

			var booking models.Booking
			if err := tx.First(&booking, "id = ?", payment.BookingID).Error; err != nil {
				return err
			}
			if services.CanTransitionBooking(booking.Status, "cancelled") {
				booking.Status = "cancelled"
				if err := tx.Save(&booking).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update internal records for refund"})
		}

		go notifications.SendEmail(payment.Booking.Renter.FullName, payment.Booking.Renter.Email, "Your Refund has been Processed", "<h1>Refund Processed</h1><p>Your refund request has been approved and processed by our team.</p>")

	} else {
		rejectedStatus := "rejected"
		payment.RefundStatus = &rejectedStatus
		database.DB.Save(&payment)

		go notifications.SendEmail(payment.Booking.Renter.FullName, payment.Booking.Renter.Email, "Update on Your Refund Request", "<h1>Refund Request Update</h1><p>Your refund request has been reviewed and was not approved.</p>")
	}

	return c.JSON(fiber.Map{"message": "Refund request processed successfully"})
}

func ListPayoutRequests(c *fiber.Ctx) error {
	var requests []models.PayoutRequest
	database.DB.Preload("Owner").Where("status = ?", "pending").Order("requested_at asc").Find(&requests)
	return c.JSON(requests)
}

func ProcessPayoutRequest(c *fiber.Ctx) error {
	requestID := c.Params("requestId")

	type ProcessRequest struct {
		Decision   string `json:"decision" validate:"required,oneof=complete reject"`
		AdminNotes string `json:"admin_notes"`
	}
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payoutRequest models.PayoutRequest
	if err := database.DB.Preload("Owner").First(&payoutRequest, "id = ?", requestID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
	}
	if payoutRequest.Status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This payout request has already been processed"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		payoutRequest.Status = req.Decision
		payoutRequest.AdminNotes = &req.AdminNotes
		payoutRequest.ProcessedAt = &now

		if err := tx.Save(&payoutRequest).Error; err != nil {
			return err
		}

		if req.Decision == "reject" {
			if err := tx.Model(&models.User{}).Where("id = ?", payoutRequest.OwnerID).Update("balance", gorm.Expr("balance + ?", payoutRequest.Amount)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout request"})
	}

	owner := payoutRequest.Owner
	if req.Decision == "complete" {
		go notifications.SendEmail(
			owner.FullName,
			owner.Email,
			"Your Payout Has Been Processed",
			fmt.Sprintf("<h1>Payout Processed</h1><p>Hello %s,</p><p>Your payout request for the amount of $%.2f has been processed and sent by our team.</p>", owner.FullName, payoutRequest.Amount),
		)
	} else {
		go notifications.SendEmail(
			owner.FullName,
			owner.Email,
			"Update on Your Payout Request",
			fmt.Sprintf("<h1>Payout Request Update</h1><p>Hello %s,</p><p>Your payout request for the amount of $%.2f was rejected. The funds have been returned to your account balance.</p><p><b>Admin Notes:</b> %s</p>", owner.FullName, payoutRequest.Amount, req.AdminNotes),
		)
	}

	return c.JSON(fiber.Map{"message": "Payout request processed."})
}

func GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := strings.TrimSpace(c.Query("search"))
	offset := (page - 1) * limit

	var users []models.User
	var totalUsers int64

	query := database.DB.Model(&models.User{})
	countQuery := database.DB.Model(&models.User{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
		countQuery = countQuery.Where("full_name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	countQuery.Count(&totalUsers)
	query.Offset(offset).Limit(limit).Find(&users)

	return c.JSON(fiber.Map{
		"data": users,
		"meta": fiber.Map{
			"total_users":  totalUsers,
			"total_pages":  int(math.Ceil(float64(totalUsers) / float64(limit))),
			"current_page": page,
		},
	})
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", req.IsActive).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

// AdminDeleteUser removes a user and everything hanging off them. This is the
// only path that physically deletes rows.
func AdminDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("userId")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return errors.New("user not found")
		}

		if err := tx.Where("renter_id = ?", userID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		bookingIDs := tx.Model(&models.Booking{}).Select("id").Where("renter_id = ? OR owner_id = ?", userID, userID)
		if err := tx.Where("user_id = ? OR booking_id IN (?)", userID, bookingIDs).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("renter_id = ? OR owner_id = ?", userID, userID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if user.Role == "owner" {
			if err := tx.Where("owner_id = ?", userID).Delete(&models.PayoutRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", userID).Delete(&models.Space{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})

	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func AdminGetAllBookings(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	status := c.Query("status")
	offset := (page - 1) * limit

	var bookings []models.Booking
	var totalBookings int64

	query := database.DB.Model(&models.Booking{})
	countQuery := database.DB.Model(&models.Booking{})

	if status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&totalBookings)
	query.Order("created_at desc").Offset(offset).Limit(limit).Preload("Renter").Preload("Space").Find(&bookings)

	return c.JSON(fiber.Map{
		"data": bookings,
		"meta": fiber.Map{
			"total":     totalBookings,
			"page":      page,
			"last_page": int(math.Ceil(float64(totalBookings) / float64(limit))),
		},
	})
}

func AdminGetPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	query := database.DB.Model(&models.Payment{})
	countQuery := database.DB.Model(&models.Payment{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	var total int64
	var paymentRows []models.Payment
	countQuery.Count(&total)
	query.Order("created_at desc").Offset(offset).Limit(limit).Preload("Booking.Renter").Find(&paymentRows)

	return c.JSON(fiber.Map{
		"data": paymentRows,
		"meta": fiber.Map{"total": total, "page": page, "last_page": int(math.Ceil(float64(total) / float64(limit)))},
	})
}

func GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var paymentRows []models.Payment
	database.DB.
		Preload("Booking.Renter").
		Where("status = ? AND created_at BETWEEN ? AND ?", "succeeded", startDate, endDate).
		Order("created_at desc").
		Find(&paymentRows)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Transaction ID", "Date", "Renter Name", "Amount", "Provider", "Booking Reference"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, p := range paymentRows {
		txnID := ""
		if p.ProviderTxnID != nil {
			txnID = *p.ProviderTxnID
		}
		row := []string{
			txnID,
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.Booking.Renter.FullName,
			fmt.Sprintf("%.2f", p.Amount),
			p.Provider,
			p.Booking.ReferenceCode,
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}

func AdminGetReviews(c *fiber.Ctx) error {
	var reviews []models.Review
	database.DB.Order("created_at desc").Preload("Renter").Preload("Space").Find(&reviews)
	return c.JSON(reviews)
}

func AdminDeleteReview(c *fiber.Ctx) error {
	reviewID := c.Params("reviewId")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", reviewID).Error; err != nil {
			return errors.New("review not found")
		}

		spaceID := review.SpaceID

		if err := tx.Delete(&review).Error; err != nil {
			return err
		}

		var result struct{ Avg float64 }
		tx.Model(&models.Review{}).Where("space_id = ?", spaceID).Select("COALESCE(AVG(rating), 0) as avg").Scan(&result)

		return tx.Model(&models.Space{}).Where("id = ?", spaceID).Update("avg_rating", result.Avg).Error
	})

	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
