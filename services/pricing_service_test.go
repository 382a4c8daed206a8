package services

import (
	"errors"
	"testing"
	"time"

	"github.com/otienojr/park_space/models"
)

func testSpace() *models.Space {
	return &models.Space{
		Title:           "Covered driveway near stadium",
		PricePerHour:    5.00,
		PricePerDay:     30.00,
		MinBookingHours: 1,
		MaxBookingDays:  30,
		Status:          "active",
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, time.September, 10, hour, min, 0, 0, time.UTC)
}

func TestQuoteBookingHourlyPricing(t *testing.T) {
	quote, err := QuoteBooking(testSpace(), at(10, 0), at(13, 0), nil, false)
	if err != nil {
		t.Fatalf("expected quote, got error: %v", err)
	}

	if quote.Hours != 3 {
		t.Errorf("expected 3 billed hours, got %d", quote.Hours)
	}
	if quote.TotalPrice != 15.00 {
		t.Errorf("expected total 15.00, got %.2f", quote.TotalPrice)
	}
	if quote.PlatformFee != 2.25 {
		t.Errorf("expected platform fee 2.25, got %.2f", quote.PlatformFee)
	}
	if quote.OwnerPayout != 12.75 {
		t.Errorf("expected owner payout 12.75, got %.2f", quote.OwnerPayout)
	}
}

func TestQuoteBookingRoundsPartialHoursUp(t *testing.T) {
	quote, err := QuoteBooking(testSpace(), at(10, 0), at(12, 30), nil, false)
	if err != nil {
		t.Fatalf("expected quote, got error: %v", err)
	}

	if quote.Hours != 3 {
		t.Errorf("expected 2.5 hours billed as 3, got %d", quote.Hours)
	}
	if quote.TotalPrice != 15.00 {
		t.Errorf("expected total 15.00 for 3 billed hours, got %.2f", quote.TotalPrice)
	}
}

func TestQuoteBookingDailyPricing(t *testing.T) {
	// 26 hours spans two billing days.
	quote, err := QuoteBooking(testSpace(), at(10, 0), at(10, 0).Add(26*time.Hour), nil, true)
	if err != nil {
		t.Fatalf("expected quote, got error: %v", err)
	}

	if quote.Days != 2 {
		t.Errorf("expected 2 billed days, got %d", quote.Days)
	}
	if quote.TotalPrice != 60.00 {
		t.Errorf("expected total 60.00, got %.2f", quote.TotalPrice)
	}
}

func TestQuoteBookingInvalidWindow(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"end equals start", at(10, 0), at(10, 0)},
		{"end before start", at(13, 0), at(10, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := QuoteBooking(testSpace(), tc.start, tc.end, nil, false); !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestQuoteBookingDurationLimits(t *testing.T) {
	space := testSpace()

	// 30 minutes is below the 1 hour minimum even though it would bill as a
	// full hour.
	if _, err := QuoteBooking(space, at(10, 0), at(10, 30), nil, false); !errors.Is(err, ErrDurationOutOfRange) {
		t.Errorf("expected ErrDurationOutOfRange for 30 minute request, got %v", err)
	}

	space.MaxBookingDays = 1
	if _, err := QuoteBooking(space, at(10, 0), at(10, 0).Add(25*time.Hour), nil, false); !errors.Is(err, ErrDurationOutOfRange) {
		t.Errorf("expected ErrDurationOutOfRange beyond max days, got %v", err)
	}
}

func TestQuoteBookingOverlapDetection(t *testing.T) {
	existing := []models.Booking{
		{Status: "confirmed", StartTime: at(12, 0), EndTime: at(16, 0)},
	}

	cases := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantError bool
	}{
		{"overlapping window rejected", at(10, 0), at(14, 0), true},
		{"fully contained window rejected", at(13, 0), at(14, 0), true},
		{"enclosing window rejected", at(11, 0), at(17, 0), true},
		{"adjacent before is allowed", at(10, 0), at(12, 0), false},
		{"adjacent after is allowed", at(16, 0), at(18, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteBooking(testSpace(), tc.start, tc.end, existing, false)
			if tc.wantError && !errors.Is(err, ErrSlotUnavailable) {
				t.Errorf("expected ErrSlotUnavailable, got %v", err)
			}
			if !tc.wantError && err != nil {
				t.Errorf("expected quote, got error: %v", err)
			}
		})
	}
}

func TestQuoteBookingIgnoresInactiveBookings(t *testing.T) {
	existing := []models.Booking{
		{Status: "cancelled", StartTime: at(10, 0), EndTime: at(14, 0)},
		{Status: "completed", StartTime: at(10, 0), EndTime: at(14, 0)},
		{Status: "pending", StartTime: at(10, 0), EndTime: at(14, 0)},
	}

	if _, err := QuoteBooking(testSpace(), at(11, 0), at(13, 0), existing, false); err != nil {
		t.Fatalf("non-blocking bookings should not conflict, got error: %v", err)
	}
}

func TestQuoteBookingFeeAndPayoutAlwaysSum(t *testing.T) {
	space := testSpace()
	space.PricePerHour = 7.77

	for hours := 1; hours <= 48; hours++ {
		quote, err := QuoteBooking(space, at(0, 0), at(0, 0).Add(time.Duration(hours)*time.Hour), nil, false)
		if err != nil {
			t.Fatalf("unexpected error at %d hours: %v", hours, err)
		}
		if diff := quote.TotalPrice - (quote.PlatformFee + quote.OwnerPayout); diff > 1e-9 || diff < -1e-9 {
			t.Errorf("fee %.2f + payout %.2f does not sum to total %.2f at %d hours",
				quote.PlatformFee, quote.OwnerPayout, quote.TotalPrice, hours)
		}
	}
}
