package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/notifications"
)

func SendBookingReminders() {
	log.Println("Running job: SendBookingReminders...")

	now := time.Now()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	var upcomingBookings []models.Booking

	err := database.DB.
		Preload("Renter").
		Preload("Space").
		Where("status = ? AND start_time BETWEEN ? AND ?", "confirmed", lowerBound, upperBound).
		Find(&upcomingBookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming bookings: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		log.Printf("Sending reminder for booking ID: %s", booking.ID)

		emailSubject := "Reminder: Your Parking Booking Starts in 1 Hour!"
		emailBody := fmt.Sprintf(
			"<h1>Booking Reminder</h1><p>Hi %s,</p><p>This is a friendly reminder that your booking at \"%s\" starts in one hour at %s.</p><p><b>Address:</b> %s, %s</p><p><b>Reference:</b> %s</p>",
			booking.Renter.FullName,
			booking.Space.Title,
			booking.StartTime.Format(time.Kitchen),
			booking.Space.Address,
			booking.Space.City,
			booking.ReferenceCode,
		)

		go notifications.SendEmail(booking.Renter.FullName, booking.Renter.Email, emailSubject, emailBody)
	}
}
