package models

import "time"

type Review struct {
	ID         string
	UserID     string
	PropertyID string
	BookingID  string
	Rating     int // 1..5
	Comment    *string
	CreatedAt  time.Time
}
