package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/notifications"
	"github.com/otienojr/park_space/websocket"
	"gorm.io/gorm"
)

// ActivateStartedBookings moves confirmed bookings into the active state once
// their window has begun.
func ActivateStartedBookings() {
	log.Println("Running job: ActivateStartedBookings...")

	now := time.Now()

	var startedBookings []models.Booking
	err := database.DB.
		Where("status = ? AND start_time <= ? AND end_time > ?", "confirmed", now, now).
		Find(&startedBookings).Error
	if err != nil {
		log.Printf("Error checking for started bookings: %v", err)
		return
	}

	if len(startedBookings) == 0 {
		return
	}

	for _, booking := range startedBookings {
		booking.Status = "active"
		if err := database.DB.Save(&booking).Error; err != nil {
			log.Printf("Error activating booking %s: %v", booking.ID, err)
			continue
		}
		websocket.NotifyBookingEvent("booking_started", booking)
	}

	log.Printf("Activated %d booking(s).", len(startedBookings))
}

// CompleteFinishedBookings completes active bookings whose window has passed
// and credits the owner's balance with their share. The payout_credited flag
// makes the credit happen exactly once even if the job overlaps a retry.
func CompleteFinishedBookings() {
	log.Println("Running job: CompleteFinishedBookings...")

	now := time.Now()

	var finishedBookings []models.Booking
	err := database.DB.
		Preload("Renter").
		Preload("Space").
		Where("status = ? AND end_time <= ?", "active", now).
		Find(&finishedBookings).Error
	if err != nil {
		log.Printf("Error checking for finished bookings: %v", err)
		return
	}

	if len(finishedBookings) == 0 {
		return
	}

	completed := 0
	for _, booking := range finishedBookings {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if booking.PaymentStatus == "paid" {
				// The listing above runs outside this transaction, so a slow
				// run can overlap the next one and both see a stale
				// payout_credited. Claiming the flag with a conditional
				// update lets only one of them credit the balance.
				claimed := tx.Model(&models.Booking{}).
					Where("id = ? AND payout_credited = ?", booking.ID, false).
					Update("payout_credited", true)
				if claimed.Error != nil {
					return claimed.Error
				}
				if claimed.RowsAffected == 1 {
					if err := tx.Model(&models.User{}).Where("id = ?", booking.OwnerID).
						Update("balance", gorm.Expr("balance + ?", booking.OwnerPayout)).Error; err != nil {
						return err
					}
				}
			}

			return tx.Model(&models.Booking{}).Where("id = ?", booking.ID).
				Update("status", "completed").Error
		})
		if err != nil {
			log.Printf("🔥 Error completing booking %s: %v", booking.ID, err)
			continue
		}
		completed++

		booking.Status = "completed"
		websocket.NotifyBookingEvent("booking_completed", booking)

		go notifications.SendEmail(
			booking.Renter.FullName,
			booking.Renter.Email,
			"How was your parking experience?",
			fmt.Sprintf("<h1>Booking Complete</h1><p>Hi %s,</p><p>Your booking at \"%s\" (ref %s) is now complete. We'd love to hear how it went! Leave a review from your bookings page.</p>", booking.Renter.FullName, booking.Space.Title, booking.ReferenceCode),
		)
	}

	log.Printf("Completed %d booking(s).", completed)
}

// ExpireUnpaidBookings cancels pending bookings whose payment never arrived,
// freeing the window for other renters.
func ExpireUnpaidBookings() {
	log.Println("Running job: ExpireUnpaidBookings...")

	cutoff := time.Now().Add(-30 * time.Minute)

	result := database.DB.Model(&models.Booking{}).
		Where("status = ? AND payment_status = ? AND created_at < ?", "pending", "pending", cutoff).
		Update("status", "cancelled")
	if result.Error != nil {
		log.Printf("Error expiring unpaid bookings: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Expired %d unpaid booking(s).", result.RowsAffected)
	}
}
