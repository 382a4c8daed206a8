package handlers

import (
	"errors"
	"testing"

	"github.com/otienojr/park_space/services"
	"github.com/gofiber/fiber/v2"
)

func TestQuoteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrSlotUnavailable, fiber.StatusConflict},
		{services.ErrInvalidWindow, fiber.StatusBadRequest},
		{services.ErrDurationOutOfRange, fiber.StatusBadRequest},
		{errors.New("something else"), fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := quoteErrorStatus(tc.err); got != tc.want {
			t.Errorf("quoteErrorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
