package models

import "time"

// Availability declares a window during which a room may be booked.
// Both dates are inclusive: a window [start, end] covers check-ins on start
// and check-outs up to and including end.
type Availability struct {
	ID        string
	RoomID    string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the window fully contains the stay
// [checkIn, checkOut]: start <= checkIn and end >= checkOut.
func (a *Availability) Covers(checkIn, checkOut time.Time) bool {
	return !a.StartDate.After(checkIn) && !a.EndDate.Before(checkOut)
}
