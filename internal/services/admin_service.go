package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/kmercado/casaway/internal/models"
)

// AttemptAuditRepository exposes the admin-facing reads over the durable
// login attempt trail.
type AttemptAuditRepository interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*models.LoginAttempt, error)
	ListRecentFailures(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error)
	FailureCountsByEmail(ctx context.Context, since time.Time, limit int) (map[string]int, error)
	CountSince(ctx context.Context, since time.Time) (total, successful int, err error)
}

// AdminService backs the admin security overview.
type AdminService struct {
	attempts AttemptAuditRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewAdminService(attempts AttemptAuditRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		attempts: attempts,
		logger:   logger,
		now:      time.Now,
	}
}

// FailedAttemptResponse is one failed login in the overview.
type FailedAttemptResponse struct {
	Email       string    `json:"email"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   *string   `json:"user_agent,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// TargetedAccountResponse is one email under sustained attack.
type TargetedAccountResponse struct {
	Email    string `json:"email"`
	Failures int    `json:"failures"`
}

// SecurityOverviewResponse summarizes the last 24 hours of authentication
// activity.
type SecurityOverviewResponse struct {
	WindowHours      int                       `json:"window_hours"`
	TotalAttempts    int                       `json:"total_attempts"`
	SuccessfulLogins int                       `json:"successful_logins"`
	FailedLogins     int                       `json:"failed_logins"`
	RecentFailures   []*FailedAttemptResponse  `json:"recent_failures"`
	TargetedAccounts []TargetedAccountResponse `json:"targeted_accounts"`
}

// LoginAttemptResponse is one attempt row in the admin listing.
type LoginAttemptResponse struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Email       string    `json:"email"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   *string   `json:"user_agent,omitempty"`
	Successful  bool      `json:"successful"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// LoginAttempts pages through the durable attempt trail, newest first.
func (s *AdminService) LoginAttempts(ctx context.Context, limit, offset int) ([]*LoginAttemptResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	attempts, err := s.attempts.ListRecent(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list login attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*LoginAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		responses = append(responses, &LoginAttemptResponse{
			ID:          a.ID,
			UserID:      a.UserID,
			Email:       a.Email,
			IPAddress:   a.IPAddress,
			UserAgent:   a.UserAgent,
			Successful:  a.Successful,
			AttemptedAt: a.AttemptedAt,
		})
	}
	return responses, nil
}

// SecurityOverview aggregates the attempt trail for the admin dashboard.
func (s *AdminService) SecurityOverview(ctx context.Context) (*SecurityOverviewResponse, error) {
	const windowHours = 24
	since := s.now().Add(-windowHours * time.Hour)

	total, successful, err := s.attempts.CountSince(ctx, since)
	if err != nil {
		s.logger.Error("failed to count login attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	failures, err := s.attempts.ListRecentFailures(ctx, since, 25)
	if err != nil {
		s.logger.Error("failed to list recent failures", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	counts, err := s.attempts.FailureCountsByEmail(ctx, since, 10)
	if err != nil {
		s.logger.Error("failed to aggregate failure counts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	recentFailures := make([]*FailedAttemptResponse, 0, len(failures))
	for _, f := range failures {
		recentFailures = append(recentFailures, &FailedAttemptResponse{
			Email:       f.Email,
			IPAddress:   f.IPAddress,
			UserAgent:   f.UserAgent,
			AttemptedAt: f.AttemptedAt,
		})
	}

	targeted := make([]TargetedAccountResponse, 0, len(counts))
	for email, n := range counts {
		targeted = append(targeted, TargetedAccountResponse{Email: email, Failures: n})
	}
	// Highest failure counts first; map iteration order is random.
	sort.Slice(targeted, func(i, j int) bool {
		if targeted[i].Failures != targeted[j].Failures {
			return targeted[i].Failures > targeted[j].Failures
		}
		return targeted[i].Email < targeted[j].Email
	})

	return &SecurityOverviewResponse{
		WindowHours:      windowHours,
		TotalAttempts:    total,
		SuccessfulLogins: successful,
		FailedLogins:     total - successful,
		RecentFailures:   recentFailures,
		TargetedAccounts: targeted,
	}, nil
}
