package handlers

import (
	"context"
	"time"

	"github.com/kmercado/casaway/internal/models"
	"github.com/kmercado/casaway/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error)
	LoginFunc          func(ctx context.Context, input services.LoginInput) (*services.AuthResponse, error)
	LogoutFunc         func(ctx context.Context, user *models.User, token *models.AuthToken) error
	LogoutAllFunc      func(ctx context.Context, user *models.User) (int, error)
	RefreshTokenFunc   func(ctx context.Context, user *models.User, current *models.AuthToken) (*services.AuthResponse, error)
	MeFunc             func(ctx context.Context, user *models.User) (*services.MeResponse, error)
	ActiveSessionsFunc func(ctx context.Context, user *models.User, currentTokenID string) ([]*services.SessionResponse, error)
	RevokeTokenFunc    func(ctx context.Context, user *models.User, tokenID string) error
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, input)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Logout(ctx context.Context, user *models.User, token *models.AuthToken) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, user, token)
	}
	return nil
}

func (m *MockAuthService) LogoutAll(ctx context.Context, user *models.User) (int, error) {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, user)
	}
	return 0, nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, user *models.User, current *models.AuthToken) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, user, current)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Me(ctx context.Context, user *models.User) (*services.MeResponse, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) ActiveSessions(ctx context.Context, user *models.User, currentTokenID string) ([]*services.SessionResponse, error) {
	if m.ActiveSessionsFunc != nil {
		return m.ActiveSessionsFunc(ctx, user, currentTokenID)
	}
	return []*services.SessionResponse{}, nil
}

func (m *MockAuthService) RevokeToken(ctx context.Context, user *models.User, tokenID string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, user, tokenID)
	}
	return nil
}

// MockBookingService implements BookingServiceInterface for testing
type MockBookingService struct {
	CreateFunc      func(ctx context.Context, user *models.User, input services.CreateBookingInput) (*services.BookingResponse, error)
	GetFunc         func(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	ListForUserFunc func(ctx context.Context, user *models.User, limit, offset int) ([]*services.BookingResponse, error)
	ConfirmFunc     func(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	CancelFunc      func(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error)
	ReviewFunc      func(ctx context.Context, user *models.User, bookingID string, input services.ReviewInput) (*services.ReviewResponse, error)
	GetPaymentFunc  func(ctx context.Context, user *models.User, paymentID string) (*services.PaymentResponse, error)
}

func (m *MockBookingService) Create(ctx context.Context, user *models.User, input services.CreateBookingInput) (*services.BookingResponse, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockBookingService) Get(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, user, bookingID)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingService) ListForUser(ctx context.Context, user *models.User, limit, offset int) ([]*services.BookingResponse, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, user, limit, offset)
	}
	return []*services.BookingResponse{}, nil
}

func (m *MockBookingService) Confirm(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, user, bookingID)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingService) Cancel(ctx context.Context, user *models.User, bookingID string) (*services.BookingResponse, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, user, bookingID)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingService) Review(ctx context.Context, user *models.User, bookingID string, input services.ReviewInput) (*services.ReviewResponse, error) {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, user, bookingID, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockBookingService) GetPayment(ctx context.Context, user *models.User, paymentID string) (*services.PaymentResponse, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, user, paymentID)
	}
	return nil, models.ErrNotFound
}

// MockCatalogService implements CatalogServiceInterface for testing
type MockCatalogService struct {
	ListRoomsFunc                func(ctx context.Context, city string, limit, offset int) ([]services.RoomSummaryResponse, error)
	GetRoomFunc                  func(ctx context.Context, roomID string) (*services.RoomDetailResponse, error)
	AddAvailabilityWindowFunc    func(ctx context.Context, user *models.User, roomID string, input services.AvailabilityWindowInput) (*services.AvailabilityWindowResponse, error)
	RemoveAvailabilityWindowFunc func(ctx context.Context, user *models.User, roomID, windowID string) error
}

func (m *MockCatalogService) ListRooms(ctx context.Context, city string, limit, offset int) ([]services.RoomSummaryResponse, error) {
	if m.ListRoomsFunc != nil {
		return m.ListRoomsFunc(ctx, city, limit, offset)
	}
	return []services.RoomSummaryResponse{}, nil
}

func (m *MockCatalogService) GetRoom(ctx context.Context, roomID string) (*services.RoomDetailResponse, error) {
	if m.GetRoomFunc != nil {
		return m.GetRoomFunc(ctx, roomID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCatalogService) AddAvailabilityWindow(ctx context.Context, user *models.User, roomID string, input services.AvailabilityWindowInput) (*services.AvailabilityWindowResponse, error) {
	if m.AddAvailabilityWindowFunc != nil {
		return m.AddAvailabilityWindowFunc(ctx, user, roomID, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockCatalogService) RemoveAvailabilityWindow(ctx context.Context, user *models.User, roomID, windowID string) error {
	if m.RemoveAvailabilityWindowFunc != nil {
		return m.RemoveAvailabilityWindowFunc(ctx, user, roomID, windowID)
	}
	return models.ErrNotFound
}

// MockAvailabilityService implements AvailabilityServiceInterface for testing
type MockAvailabilityService struct {
	FindAvailableRoomsFunc func(ctx context.Context, input services.SearchInput) ([]*services.AvailableRoomResponse, error)
	IsRoomAvailableFunc    func(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error)
	QuoteFunc              func(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*services.AvailableRoomResponse, error)
}

func (m *MockAvailabilityService) FindAvailableRooms(ctx context.Context, input services.SearchInput) ([]*services.AvailableRoomResponse, error) {
	if m.FindAvailableRoomsFunc != nil {
		return m.FindAvailableRoomsFunc(ctx, input)
	}
	return []*services.AvailableRoomResponse{}, nil
}

func (m *MockAvailabilityService) IsRoomAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error) {
	if m.IsRoomAvailableFunc != nil {
		return m.IsRoomAvailableFunc(ctx, roomID, checkIn, checkOut)
	}
	return false, nil
}

func (m *MockAvailabilityService) Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*services.AvailableRoomResponse, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, roomID, checkIn, checkOut)
	}
	return nil, models.ErrNotFound
}
