package services

import (
	"context"
	"time"

	"github.com/kmercado/casaway/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	TouchLastLoginFunc func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockTokenRepository implements TokenRepository for testing
type MockTokenRepository struct {
	CreateFunc            func(ctx context.Context, token *models.AuthToken) (*models.AuthToken, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.AuthToken, error)
	ListActiveByUserFunc  func(ctx context.Context, userID string) ([]*models.AuthToken, error)
	CountActiveByUserFunc func(ctx context.Context, userID string) (int, error)
	TouchLastUsedFunc     func(ctx context.Context, id string, at time.Time) error
	DeleteByIDFunc        func(ctx context.Context, id string) error
	DeleteByIDForUserFunc func(ctx context.Context, id, userID string) error
	DeleteAllForUserFunc  func(ctx context.Context, userID string) (int, error)
	RotateFunc            func(ctx context.Context, oldID string, replacement *models.AuthToken) (*models.AuthToken, error)
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.AuthToken) (*models.AuthToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	return token, nil
}

func (m *MockTokenRepository) GetByID(ctx context.Context, id string) (*models.AuthToken, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTokenRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.AuthToken, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID)
	}
	return []*models.AuthToken{}, nil
}

func (m *MockTokenRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	if m.CountActiveByUserFunc != nil {
		return m.CountActiveByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockTokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastUsedFunc != nil {
		return m.TouchLastUsedFunc(ctx, id, at)
	}
	return nil
}

func (m *MockTokenRepository) DeleteByID(ctx context.Context, id string) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return nil
}

func (m *MockTokenRepository) DeleteByIDForUser(ctx context.Context, id, userID string) error {
	if m.DeleteByIDForUserFunc != nil {
		return m.DeleteByIDForUserFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockTokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockTokenRepository) Rotate(ctx context.Context, oldID string, replacement *models.AuthToken) (*models.AuthToken, error) {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, oldID, replacement)
	}
	return replacement, nil
}

// MockLoginAttemptRecorder implements LoginAttemptRecorder for testing
type MockLoginAttemptRecorder struct {
	RecordFunc func(ctx context.Context, attempt *models.LoginAttempt) error
	Recorded   []*models.LoginAttempt
}

func (m *MockLoginAttemptRecorder) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	m.Recorded = append(m.Recorded, attempt)
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, attempt)
	}
	return nil
}

// MockAttemptAuditRepository implements AttemptAuditRepository for testing
type MockAttemptAuditRepository struct {
	ListRecentFunc           func(ctx context.Context, limit, offset int) ([]*models.LoginAttempt, error)
	ListRecentFailuresFunc   func(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error)
	FailureCountsByEmailFunc func(ctx context.Context, since time.Time, limit int) (map[string]int, error)
	CountSinceFunc           func(ctx context.Context, since time.Time) (total, successful int, err error)
}

func (m *MockAttemptAuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.LoginAttempt, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit, offset)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockAttemptAuditRepository) ListRecentFailures(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error) {
	if m.ListRecentFailuresFunc != nil {
		return m.ListRecentFailuresFunc(ctx, since, limit)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockAttemptAuditRepository) FailureCountsByEmail(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
	if m.FailureCountsByEmailFunc != nil {
		return m.FailureCountsByEmailFunc(ctx, since, limit)
	}
	return map[string]int{}, nil
}

func (m *MockAttemptAuditRepository) CountSince(ctx context.Context, since time.Time) (total, successful int, err error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, since)
	}
	return 0, 0, nil
}

// MockMailer implements Mailer for testing
type MockMailer struct {
	SendWelcomeEmailFunc        func(ctx context.Context, email, name string) error
	SendBookingConfirmationFunc func(ctx context.Context, email, name, reference string, checkIn, checkOut time.Time) error
	WelcomesSent                int
	ConfirmationsSent           int
}

func (m *MockMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	m.WelcomesSent++
	if m.SendWelcomeEmailFunc != nil {
		return m.SendWelcomeEmailFunc(ctx, email, name)
	}
	return nil
}

func (m *MockMailer) SendBookingConfirmation(ctx context.Context, email, name, reference string, checkIn, checkOut time.Time) error {
	m.ConfirmationsSent++
	if m.SendBookingConfirmationFunc != nil {
		return m.SendBookingConfirmationFunc(ctx, email, name, reference, checkIn, checkOut)
	}
	return nil
}

// MockRoomRepository implements RoomRepository for testing
type MockRoomRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.Room, error)
	ListFunc       func(ctx context.Context, city string, limit, offset int) ([]*models.Room, error)
	GetDetailsFunc func(ctx context.Context, roomID string) (*models.RoomDetails, error)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockRoomRepository) List(ctx context.Context, city string, limit, offset int) ([]*models.Room, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, city, limit, offset)
	}
	return []*models.Room{}, nil
}

func (m *MockRoomRepository) GetDetails(ctx context.Context, roomID string) (*models.RoomDetails, error) {
	if m.GetDetailsFunc != nil {
		return m.GetDetailsFunc(ctx, roomID)
	}
	return nil, models.ErrNotFound
}

// MockAvailabilityRepository implements AvailabilityRepository for testing
type MockAvailabilityRepository struct {
	ListForRoomFunc  func(ctx context.Context, roomID string) ([]*models.Availability, error)
	ListForRoomsFunc func(ctx context.Context, roomIDs []string) (map[string][]*models.Availability, error)
	CreateFunc       func(ctx context.Context, window *models.Availability) (*models.Availability, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockAvailabilityRepository) Create(ctx context.Context, window *models.Availability) (*models.Availability, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, window)
	}
	window.ID = "window-1"
	return window, nil
}

func (m *MockAvailabilityRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return models.ErrNotFound
}

func (m *MockAvailabilityRepository) ListForRoom(ctx context.Context, roomID string) ([]*models.Availability, error) {
	if m.ListForRoomFunc != nil {
		return m.ListForRoomFunc(ctx, roomID)
	}
	return []*models.Availability{}, nil
}

func (m *MockAvailabilityRepository) ListForRooms(ctx context.Context, roomIDs []string) (map[string][]*models.Availability, error) {
	if m.ListForRoomsFunc != nil {
		return m.ListForRoomsFunc(ctx, roomIDs)
	}
	return map[string][]*models.Availability{}, nil
}

// MockBookingRepository implements BookingRepository for testing
type MockBookingRepository struct {
	CreateFunc               func(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByIDFunc              func(ctx context.Context, id string) (*models.Booking, error)
	ListByUserFunc           func(ctx context.Context, userID string, limit, offset int) ([]*models.Booking, error)
	ListBlockingForRoomsFunc func(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error)
	UpdateStatusFunc         func(ctx context.Context, id, from, to string) (*models.Booking, error)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	return booking, nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Booking, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.Booking{}, nil
}

func (m *MockBookingRepository) ListBlockingForRooms(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) (map[string][]*models.Booking, error) {
	if m.ListBlockingForRoomsFunc != nil {
		return m.ListBlockingForRoomsFunc(ctx, roomIDs, checkIn, checkOut)
	}
	return map[string][]*models.Booking{}, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*models.Booking, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to)
	}
	return nil, models.ErrNotFound
}

// MockPaymentRepository implements PaymentRepository for testing
type MockPaymentRepository struct {
	CreateFunc        func(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.Payment, error)
	ListByBookingFunc func(ctx context.Context, bookingID string) ([]*models.Payment, error)
	MarkCompletedFunc func(ctx context.Context, id, transactionID string, paidAt time.Time) (*models.Payment, error)
	RecordRefundFunc  func(ctx context.Context, id string, amount string, reason string, status string, at time.Time) (*models.Payment, error)

	Created []*models.Payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	m.Created = append(m.Created, payment)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	return payment, nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	if m.ListByBookingFunc != nil {
		return m.ListByBookingFunc(ctx, bookingID)
	}
	return []*models.Payment{}, nil
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, id, transactionID string, paidAt time.Time) (*models.Payment, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id, transactionID, paidAt)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) RecordRefund(ctx context.Context, id string, amount string, reason string, status string, at time.Time) (*models.Payment, error) {
	if m.RecordRefundFunc != nil {
		return m.RecordRefundFunc(ctx, id, amount, reason, status, at)
	}
	return nil, models.ErrNotFound
}

// MockReviewRepository implements ReviewRepository for testing
type MockReviewRepository struct {
	CreateFunc         func(ctx context.Context, review *models.Review) (*models.Review, error)
	ListByPropertyFunc func(ctx context.Context, propertyID string, limit, offset int) ([]*models.Review, error)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, review)
	}
	review.ID = "review-1"
	review.CreatedAt = time.Now()
	return review, nil
}

func (m *MockReviewRepository) ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]*models.Review, error) {
	if m.ListByPropertyFunc != nil {
		return m.ListByPropertyFunc(ctx, propertyID, limit, offset)
	}
	return []*models.Review{}, nil
}
