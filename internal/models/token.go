package models

import "time"

// AuthToken is an opaque bearer credential. The plaintext secret is shown to
// the client exactly once at creation; only its SHA-256 hash is stored.
type AuthToken struct {
	ID         string
	UserID     string
	Name       string // device/session name, e.g. "iPhone 15" or a User-Agent string
	TokenHash  string
	Abilities  []string
	LastUsedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// AbilityAll grants a token every capability.
const AbilityAll = "*"

// IsExpired reports whether the token has passed its expiry.
func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Can reports whether the token carries the given ability.
func (t *AuthToken) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == AbilityAll || a == ability {
			return true
		}
	}
	return false
}
