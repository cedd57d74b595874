package throttle

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

const (
	loginKeyPrefix    = "login_attempts:"
	lockKeyPrefix     = "user_locked:"
	registerKeyPrefix = "register_attempts:"
)

// LoginPolicy configures the login limiter. The failure counter and the
// lockout share one threshold: the lock is created at the moment the counter
// reaches MaxAttempts.
type LoginPolicy struct {
	MaxAttempts     int
	DecayWindow     time.Duration
	LockoutDuration time.Duration
}

// LoginLimiter throttles login attempts per (email, ip) and escalates to a
// timed per-email account lock after sustained failures.
type LoginLimiter struct {
	store  Store
	policy LoginPolicy
	now    func() time.Time
}

func NewLoginLimiter(store Store, policy LoginPolicy) *LoginLimiter {
	return &LoginLimiter{store: store, policy: policy, now: time.Now}
}

// SetClock replaces the limiter's clock. Test use only.
func (l *LoginLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// attemptKey hashes (email, ip) so raw addresses never appear as cache keys.
func attemptKey(email, ip string) string {
	sum := sha256.Sum256([]byte(email + "|" + ip))
	return loginKeyPrefix + fmt.Sprintf("%x", sum)[:32]
}

func lockKey(email string) string {
	return lockKeyPrefix + email
}

// CheckLock reports whether the account is locked and until when.
func (l *LoginLimiter) CheckLock(ctx context.Context, email string) (time.Time, bool, error) {
	v, ok, err := l.store.GetLock(ctx, lockKey(email))
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	retryAt, perr := time.Parse(time.RFC3339, v)
	if perr != nil {
		// Corrupt lock value; treat as unlocked rather than locking the user
		// out on garbage.
		return time.Time{}, false, nil
	}
	return retryAt, true, nil
}

// TooManyAttempts reports whether the (email, ip) counter has reached the
// maximum, and if so how many seconds remain until the window resets.
func (l *LoginLimiter) TooManyAttempts(ctx context.Context, email, ip string) (bool, int, error) {
	key := attemptKey(email, ip)

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count < l.policy.MaxAttempts {
		return false, 0, nil
	}

	seconds, err := l.store.SecondsUntilReset(ctx, key)
	if err != nil {
		return false, 0, err
	}
	return true, seconds, nil
}

// RecordFailure increments the failure counter and creates the account lock
// when the post-increment count reaches the threshold. Returns the new count
// and, when a lock exists after this call, its retry time.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email, ip string) (int, bool, time.Time, error) {
	count, err := l.store.Increment(ctx, attemptKey(email, ip), l.policy.DecayWindow)
	if err != nil {
		return 0, false, time.Time{}, err
	}

	if count < l.policy.MaxAttempts {
		return count, false, time.Time{}, nil
	}

	retryAt := l.now().Add(l.policy.LockoutDuration)
	created, err := l.store.PutLock(ctx, lockKey(email), retryAt.UTC().Format(time.RFC3339), l.policy.LockoutDuration)
	if err != nil {
		return count, false, time.Time{}, err
	}
	if !created {
		// A concurrent attempt already locked the account; report its window.
		if existing, ok, gerr := l.CheckLock(ctx, email); gerr == nil && ok {
			retryAt = existing
		}
	}
	return count, true, retryAt, nil
}

// AttemptsRemaining converts a failure count into the user-facing hint.
// Never negative.
func (l *LoginLimiter) AttemptsRemaining(count int) int {
	remaining := l.policy.MaxAttempts - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ClearAttempts resets the (email, ip) counter after a successful login.
func (l *LoginLimiter) ClearAttempts(ctx context.Context, email, ip string) error {
	return l.store.Clear(ctx, attemptKey(email, ip))
}

// RegistrationPolicy configures the per-IP registration limiter, independent
// of the login limiter.
type RegistrationPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// RegistrationLimiter throttles registrations per IP.
type RegistrationLimiter struct {
	store  Store
	policy RegistrationPolicy
}

func NewRegistrationLimiter(store Store, policy RegistrationPolicy) *RegistrationLimiter {
	return &RegistrationLimiter{store: store, policy: policy}
}

// Allow consumes one registration attempt for the IP. When the limit is
// exceeded it returns false plus the seconds until the window resets.
func (l *RegistrationLimiter) Allow(ctx context.Context, ip string) (bool, int, error) {
	key := registerKeyPrefix + ip

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count >= l.policy.MaxAttempts {
		seconds, err := l.store.SecondsUntilReset(ctx, key)
		if err != nil {
			return false, 0, err
		}
		return false, seconds, nil
	}

	if _, err := l.store.Increment(ctx, key, l.policy.Window); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}
