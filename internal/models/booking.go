package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Stored booking statuses. The state machine is:
// pending -> confirmed -> (terminal), pending|confirmed -> cancelled (terminal).
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Derived display statuses, computed from stored status plus dates and never
// persisted.
const (
	DisplayPending   = "pending"
	DisplayCancelled = "cancelled"
	DisplayCompleted = "completed"
	DisplayActive    = "active"
	DisplayUpcoming  = "upcoming"
)

// Booking is a stay in a room. Check-in is inclusive, check-out exclusive:
// a booking ending on day X and another starting on day X do not conflict.
type Booking struct {
	ID           string
	Sequence     int64 // monotonically increasing number behind the booking reference
	UserID       string
	RoomID       string
	CheckInDate  time.Time
	CheckOutDate time.Time
	GuestsCount  int
	Status       string
	TotalPrice   decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Overlaps applies the half-open interval rule: [a,b) and [c,d) overlap
// iff a < d and c < b.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckInDate.Before(checkOut) && checkIn.Before(b.CheckOutDate)
}

// Blocks reports whether this booking excludes the given stay: cancelled
// bookings never block.
func (b *Booking) Blocks(checkIn, checkOut time.Time) bool {
	return b.Status != BookingCancelled && b.Overlaps(checkIn, checkOut)
}

// Nights returns the stay length in whole days.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

// Reference returns the human-facing booking reference, e.g. BK-000042.
func (b *Booking) Reference() string {
	return fmt.Sprintf("BK-%06d", b.Sequence)
}

// CanTransitionTo validates a stored-status transition.
func (b *Booking) CanTransitionTo(next string) bool {
	switch b.Status {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	default:
		return false
	}
}

// DisplayStatus computes the derived status as of the given day (callers pass
// midnight of "today").
func (b *Booking) DisplayStatus(today time.Time) string {
	switch {
	case b.Status == BookingCancelled:
		return DisplayCancelled
	case b.Status == BookingPending:
		return DisplayPending
	case b.CheckOutDate.Before(today):
		return DisplayCompleted
	case !b.CheckInDate.After(today) && b.CheckOutDate.After(today):
		return DisplayActive
	default:
		return DisplayUpcoming
	}
}

// IsActive reports whether a confirmed stay spans the given day.
func (b *Booking) IsActive(today time.Time) bool {
	return b.Status == BookingConfirmed &&
		!b.CheckInDate.After(today) && b.CheckOutDate.After(today)
}
