package services

// Booking lifecycle: pending → {confirmed, cancelled};
// confirmed → {active, cancelled}; active → {completed, cancelled, disputed}.
// completed, cancelled and disputed are terminal.
var bookingTransitions = map[string][]string{
	"pending":   {"confirmed", "cancelled"},
	"confirmed": {"active", "cancelled"},
	"active":    {"completed", "cancelled", "disputed"},
}

func CanTransitionBooking(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
