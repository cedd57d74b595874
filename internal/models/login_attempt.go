package models

import "time"

// LoginAttempt is an immutable audit record written on every login attempt.
// The system never mutates or deletes these itself; retention cleanup is the
// only process that removes old rows.
type LoginAttempt struct {
	ID          string
	UserID      *string // set on successful attempts
	Email       string
	IPAddress   string
	UserAgent   *string
	TokenID     *string // token minted by a successful attempt
	Successful  bool
	AttemptedAt time.Time
	CreatedAt   time.Time
}
