package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/config"
	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/throttle"
	pkgauth "github.com/kmercado/casaway/pkg/auth"
	pkglogger "github.com/kmercado/casaway/pkg/logger"
)

// UserRepository defines the user persistence operations the services need.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// TokenRepository defines the auth token persistence operations.
type TokenRepository interface {
	Create(ctx context.Context, token *models.AuthToken) (*models.AuthToken, error)
	GetByID(ctx context.Context, id string) (*models.AuthToken, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.AuthToken, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDForUser(ctx context.Context, id, userID string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
	Rotate(ctx context.Context, oldID string, replacement *models.AuthToken) (*models.AuthToken, error)
}

// LoginAttemptRecorder appends to the durable authentication audit trail.
type LoginAttemptRecorder interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) error
}

// Mailer sends transactional email. Implementations are best-effort; callers
// never fail a request because a send failed.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendBookingConfirmation(ctx context.Context, email, name, reference string, checkIn, checkOut time.Time) error
}

// dummyHash burns a bcrypt comparison when the email is unknown so response
// timing does not reveal whether an account exists.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService implements the authentication guard: registration and login
// with throttling and lockout, token lifecycle, and the session surface.
type AuthService struct {
	users           UserRepository
	tokens          TokenRepository
	attempts        LoginAttemptRecorder
	loginLimiter    *throttle.LoginLimiter
	registerLimiter *throttle.RegistrationLimiter
	mailer          Mailer
	cfg             config.AuthConfig
	logger          *slog.Logger
	auditLogger     *pkglogger.AuditLogger
	now             func() time.Time
}

func NewAuthService(
	users UserRepository,
	tokens TokenRepository,
	attempts LoginAttemptRecorder,
	loginLimiter *throttle.LoginLimiter,
	registerLimiter *throttle.RegistrationLimiter,
	mailer Mailer,
	cfg config.AuthConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:           users,
		tokens:          tokens,
		attempts:        attempts,
		loginLimiter:    loginLimiter,
		registerLimiter: registerLimiter,
		mailer:          mailer,
		cfg:             cfg,
		logger:          logger,
		auditLogger:     auditLogger,
		now:             time.Now,
	}
}

// UserResponse is the user shape returned by auth operations.
type UserResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Role            string            `json:"role"`
	ProfileInfo     map[string]string `json:"profile_info,omitempty"`
	EmailVerifiedAt *time.Time        `json:"email_verified_at"`
	LastLoginAt     *time.Time        `json:"last_login_at"`
	CreatedAt       time.Time         `json:"created_at"`
}

// AuthResponse carries the minted token alongside the user. The token
// plaintext appears here and nowhere else.
type AuthResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// MeResponse is the authenticated profile with its session count.
type MeResponse struct {
	User         *UserResponse `json:"user"`
	ActiveTokens int           `json:"active_tokens"`
}

// SessionResponse describes one active token without revealing its secret.
type SessionResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	IsCurrent  bool       `json:"is_current"`
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	ProfileInfo map[string]string
	IPAddress   string
	UserAgent   string
}

// LoginInput is the validated login payload. SingleSession revokes every
// existing token before the new one is minted.
type LoginInput struct {
	Email         string
	Password      string
	DeviceName    string
	SingleSession bool
	IPAddress     string
	UserAgent     string
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		ProfileInfo:     user.ProfileInfo,
		EmailVerifiedAt: user.EmailVerifiedAt,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
	}
}

// Register creates an account and mints a short-lived initial token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	allowed, retryAfter, err := s.registerLimiter.Allow(ctx, input.IPAddress)
	if err != nil {
		// Throttle store failures degrade to allowing the request.
		s.logger.Error("registration limiter unavailable", slog.Any("error", err))
	} else if !allowed {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "register_throttled",
			IPAddress:     input.IPAddress,
			FailureReason: "too_many_attempts",
			Success:       false,
		})
		return nil, &models.AuthError{Err: models.ErrTooManyAttempts, RetryAfterSeconds: retryAfter}
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role := input.Role
	if role == "" {
		role = models.RoleGuest
	}
	if role != models.RoleGuest && role != models.RoleHost {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.Create(ctx, &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ProfileInfo:  input.ProfileInfo,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "register_failed",
				Email:         email,
				IPAddress:     input.IPAddress,
				FailureReason: "duplicate_email",
				Success:       false,
			})
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, plaintext, err := s.mintToken(ctx, user.ID, deviceNameOrDefault("", input.UserAgent), s.cfg.RegisterTokenTTL)
	if err != nil {
		s.logger.Error("failed to mint registration token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		UserID:    user.ID,
		Email:     email,
		IPAddress: input.IPAddress,
		Success:   true,
	})

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			s.logger.Error("failed to send welcome email", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	return &AuthResponse{
		Token:     plaintext,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
		User:      userModelToResponse(user),
	}, nil
}

// Login runs the guard in fixed order: account lock, rate limit, credential
// check, then bookkeeping. Every credential evaluation lands in the durable
// attempt log regardless of outcome.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Step 1: account lock.
	retryAt, locked, err := s.loginLimiter.CheckLock(ctx, email)
	if err != nil {
		s.logger.Error("lock check unavailable", slog.Any("error", err))
	} else if locked {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			Email:         email,
			IPAddress:     input.IPAddress,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, &models.AuthError{Err: models.ErrAccountLocked, RetryAt: retryAt}
	}

	// Step 2: rate limit.
	tooMany, retryAfter, err := s.loginLimiter.TooManyAttempts(ctx, email, input.IPAddress)
	if err != nil {
		s.logger.Error("rate limit check unavailable", slog.Any("error", err))
	} else if tooMany {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_throttled",
			Email:         email,
			IPAddress:     input.IPAddress,
			FailureReason: "too_many_attempts",
			Success:       false,
		})
		return nil, &models.AuthError{Err: models.ErrTooManyAttempts, RetryAfterSeconds: retryAfter}
	}

	// Step 3: credential check. The bcrypt comparison runs whether or not the
	// user exists.
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash := dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	credentialsOK := pkgauth.ComparePassword(hash, input.Password) == nil && user != nil

	if !credentialsOK {
		return nil, s.failLogin(ctx, user, email, input)
	}

	// Step 4: success bookkeeping.
	if err := s.loginLimiter.ClearAttempts(ctx, email, input.IPAddress); err != nil {
		s.logger.Error("failed to clear login attempts", slog.Any("error", err))
	}

	if input.SingleSession {
		revoked, err := s.tokens.DeleteAllForUser(ctx, user.ID)
		if err != nil {
			s.logger.Error("failed to revoke existing sessions", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.auditLogger.LogAccountAction("single_session_login", user.ID, input.IPAddress, map[string]string{
			"revoked_tokens": strconv.Itoa(revoked),
		})
	}

	token, plaintext, err := s.mintToken(ctx, user.ID, deviceNameOrDefault(input.DeviceName, input.UserAgent), s.cfg.LoginTokenTTL)
	if err != nil {
		s.logger.Error("failed to mint login token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to stamp last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	user.LastLoginAt = &now

	s.recordAttempt(ctx, &models.LoginAttempt{
		UserID:     &user.ID,
		Email:      email,
		IPAddress:  input.IPAddress,
		UserAgent:  optional(input.UserAgent),
		TokenID:    &token.ID,
		Successful: true,
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Email:     email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Success:   true,
	})

	return &AuthResponse{
		Token:     plaintext,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
		User:      userModelToResponse(user),
	}, nil
}

// failLogin handles one failed credential check: bump the counter, maybe
// create the lock, append the audit row, and shape the caller-facing error.
func (s *AuthService) failLogin(ctx context.Context, user *models.User, email string, input LoginInput) error {
	// When the store is down, report as if this were the first failure.
	remaining := s.loginLimiter.AttemptsRemaining(1)

	count, lockedNow, retryAt, err := s.loginLimiter.RecordFailure(ctx, email, input.IPAddress)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
	} else {
		remaining = s.loginLimiter.AttemptsRemaining(count)
		if lockedNow {
			s.auditLogger.LogAccountLocked(email, input.IPAddress, retryAt)
		}
	}

	var userID *string
	if user != nil {
		userID = &user.ID
	}
	s.recordAttempt(ctx, &models.LoginAttempt{
		UserID:     userID,
		Email:      email,
		IPAddress:  input.IPAddress,
		UserAgent:  optional(input.UserAgent),
		Successful: false,
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Email:         email,
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		FailureReason: "invalid_credentials",
		Success:       false,
	})

	return &models.AuthError{Err: models.ErrInvalidCredentials, AttemptsRemaining: remaining}
}

// Authenticate resolves a bearer token for middleware. Unknown ids, secret
// mismatches and expired tokens all collapse into ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, plaintext string) (*models.User, *models.AuthToken, error) {
	id, secret, err := auth.Parse(plaintext)
	if err != nil {
		return nil, nil, models.ErrUnauthorized
	}

	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load token", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if !auth.VerifySecret(token.TokenHash, secret) || token.IsExpired() {
		return nil, nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load token owner", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	// Usage stamping is best-effort.
	if err := s.tokens.TouchLastUsed(ctx, token.ID, s.now()); err != nil {
		s.logger.Error("failed to stamp token usage", slog.String("token_id", token.ID), slog.Any("error", err))
	}

	return user, token, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, user *models.User, token *models.AuthToken) error {
	if err := s.tokens.DeleteByID(ctx, token.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to delete token", slog.String("token_id", token.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("logout", user.ID, "", nil)
	return nil
}

// LogoutAll revokes every session and reports how many were removed.
func (s *AuthService) LogoutAll(ctx context.Context, user *models.User) (int, error) {
	count, err := s.tokens.DeleteAllForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to delete tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("logout_all", user.ID, "", map[string]string{
		"revoked_tokens": strconv.Itoa(count),
	})
	return count, nil
}

// RefreshToken mints a replacement for the presented token and revokes the
// old one atomically. The new token inherits the session name and gets a
// fresh full TTL.
func (s *AuthService) RefreshToken(ctx context.Context, user *models.User, current *models.AuthToken) (*AuthResponse, error) {
	gen, err := auth.Generate()
	if err != nil {
		s.logger.Error("failed to generate token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	replacement := &models.AuthToken{
		ID:        gen.ID,
		UserID:    user.ID,
		Name:      current.Name,
		TokenHash: gen.Hash,
		Abilities: []string{models.AbilityAll},
		ExpiresAt: s.now().Add(s.cfg.LoginTokenTTL),
	}

	rotated, err := s.tokens.Rotate(ctx, current.ID, replacement)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to rotate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("token_refreshed", user.ID, "", nil)

	return &AuthResponse{
		Token:     gen.Plaintext,
		TokenType: "Bearer",
		ExpiresAt: rotated.ExpiresAt,
		User:      userModelToResponse(user),
	}, nil
}

// Me returns the profile with its active session count.
func (s *AuthService) Me(ctx context.Context, user *models.User) (*MeResponse, error) {
	count, err := s.tokens.CountActiveByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to count tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &MeResponse{User: userModelToResponse(user), ActiveTokens: count}, nil
}

// ActiveSessions lists the user's live tokens, flagging the one presented on
// this request.
func (s *AuthService) ActiveSessions(ctx context.Context, user *models.User, currentTokenID string) ([]*SessionResponse, error) {
	tokens, err := s.tokens.ListActiveByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sessions := make([]*SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, &SessionResponse{
			ID:         t.ID,
			Name:       t.Name,
			LastUsedAt: t.LastUsedAt,
			ExpiresAt:  t.ExpiresAt,
			CreatedAt:  t.CreatedAt,
			IsCurrent:  t.ID == currentTokenID,
		})
	}
	return sessions, nil
}

// RevokeToken deletes one of the user's tokens by id. Someone else's token
// is reported as missing, never as forbidden.
func (s *AuthService) RevokeToken(ctx context.Context, user *models.User, tokenID string) error {
	if err := s.tokens.DeleteByIDForUser(ctx, tokenID, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to revoke token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("token_revoked", user.ID, "", map[string]string{
		"token_id": tokenID,
	})
	return nil
}

func (s *AuthService) mintToken(ctx context.Context, userID, name string, ttl time.Duration) (*models.AuthToken, string, error) {
	gen, err := auth.Generate()
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Create(ctx, &models.AuthToken{
		ID:        gen.ID,
		UserID:    userID,
		Name:      name,
		TokenHash: gen.Hash,
		Abilities: []string{models.AbilityAll},
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return nil, "", err
	}

	return token, gen.Plaintext, nil
}

// recordAttempt appends to the durable audit trail. Write failures are
// logged and swallowed; an audit hiccup never changes an auth decision.
func (s *AuthService) recordAttempt(ctx context.Context, attempt *models.LoginAttempt) {
	attempt.AttemptedAt = s.now()
	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.logger.Error("failed to record login attempt", slog.Any("error", err))
	}
}

func deviceNameOrDefault(deviceName, userAgent string) string {
	if deviceName = strings.TrimSpace(deviceName); deviceName != "" {
		return deviceName
	}
	if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
		return userAgent
	}
	return "Unknown Device"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
