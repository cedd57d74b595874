package models

import (
	"time"
)

// User roles
const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            string // "guest", "host", "admin"
	ProfileInfo     map[string]string
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the user has completed email verification.
func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}
