package services

import "testing"

func TestCanTransitionBooking(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{"pending", "confirmed", true},
		{"pending", "cancelled", true},
		{"pending", "active", false},
		{"pending", "completed", false},
		{"confirmed", "active", true},
		{"confirmed", "cancelled", true},
		{"confirmed", "completed", false},
		{"confirmed", "disputed", false},
		{"active", "completed", true},
		{"active", "cancelled", true},
		{"active", "disputed", true},
		{"active", "confirmed", false},
		{"completed", "cancelled", false},
		{"cancelled", "confirmed", false},
		{"disputed", "completed", false},
		{"bogus", "confirmed", false},
	}

	for _, tc := range cases {
		if got := CanTransitionBooking(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransitionBooking(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}
