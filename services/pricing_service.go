package services

import (
	"errors"
	"math"
	"strconv"
	"time"

	config "github.com/otienojr/park_space/configs"
	"github.com/otienojr/park_space/models"
)

var (
	ErrInvalidWindow      = errors.New("requested end must be after requested start")
	ErrDurationOutOfRange = errors.New("requested duration is outside the space's booking limits")
	ErrSlotUnavailable    = errors.New("the space is already booked for part of the requested window")
	ErrPaymentMismatch    = errors.New("provider status references an unknown booking or payment")
)

const defaultCommissionRate = 0.15

// BookingQuote is the priced outcome of a booking request. TotalPrice is
// always exactly PlatformFee + OwnerPayout.
type BookingQuote struct {
	Hours       int     `json:"hours"`
	Days        int     `json:"days,omitempty"`
	TotalPrice  float64 `json:"total_price"`
	PlatformFee float64 `json:"platform_fee"`
	OwnerPayout float64 `json:"owner_payout"`
}

// CommissionRate reads PLATFORM_COMMISSION_RATE, falling back to 15%.
func CommissionRate() float64 {
	rate, err := strconv.ParseFloat(config.Config("PLATFORM_COMMISSION_RATE"), 64)
	if err != nil || rate <= 0 || rate >= 1 {
		return defaultCommissionRate
	}
	return rate
}

// QuoteBooking validates a requested [start, end) window against a space and
// its existing bookings and prices it. Partial hours round up to the next
// whole hour. Only confirmed and active bookings block the window; intervals
// that merely touch at a boundary do not conflict.
//
// The function is pure: the caller must re-check and insert inside a single
// transaction holding a lock on the space row, otherwise two renters can race
// for the same window.
func QuoteBooking(space *models.Space, start, end time.Time, existing []models.Booking, useDailyRate bool) (*BookingQuote, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	hours := int(math.Ceil(end.Sub(start).Minutes() / 60))

	// The minimum is checked against the raw window length, not the billed
	// hours, so a 30-minute request cannot slip past a 1-hour minimum by
	// rounding up.
	if end.Sub(start).Hours() < float64(space.MinBookingHours) || hours > space.MaxBookingDays*24 {
		return nil, ErrDurationOutOfRange
	}

	for _, b := range existing {
		if b.Status != "confirmed" && b.Status != "active" {
			continue
		}
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			return nil, ErrSlotUnavailable
		}
	}

	quote := &BookingQuote{Hours: hours}
	if useDailyRate {
		quote.Days = (hours + 23) / 24
		quote.TotalPrice = round2(float64(quote.Days) * space.PricePerDay)
	} else {
		quote.TotalPrice = round2(float64(hours) * space.PricePerHour)
	}

	quote.PlatformFee = round2(quote.TotalPrice * CommissionRate())
	quote.OwnerPayout = round2(quote.TotalPrice - quote.PlatformFee)

	return quote, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
