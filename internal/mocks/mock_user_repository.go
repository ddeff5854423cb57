package mocks

import (
	"context"
	"time"

	"github.com/you/companionsvc/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc                 func(ctx context.Context, user *domain.User) error
	FindByEmailFunc            func(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordFunc         func(ctx context.Context, userID, passwordHash string) error
	SetVerifiedFunc            func(ctx context.Context, email string) error
	SetResetOTPFunc            func(ctx context.Context, userID, otp string, createdAt time.Time) error
	IncrementResetAttemptsFunc func(ctx context.Context, userID string) (int, error)
	ClearResetOTPFunc          func(ctx context.Context, userID string) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// UpdatePassword replaces the password hash
func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, passwordHash)
	}
	return nil
}

// SetVerified marks the account verified
func (m *MockUserRepository) SetVerified(ctx context.Context, email string) error {
	if m.SetVerifiedFunc != nil {
		return m.SetVerifiedFunc(ctx, email)
	}
	return nil
}

// SetResetOTP stores a password reset code
func (m *MockUserRepository) SetResetOTP(ctx context.Context, userID, otp string, createdAt time.Time) error {
	if m.SetResetOTPFunc != nil {
		return m.SetResetOTPFunc(ctx, userID, otp, createdAt)
	}
	return nil
}

// IncrementResetAttempts counts a wrong reset code
func (m *MockUserRepository) IncrementResetAttempts(ctx context.Context, userID string) (int, error) {
	if m.IncrementResetAttemptsFunc != nil {
		return m.IncrementResetAttemptsFunc(ctx, userID)
	}
	// Default behavior: first failure
	return 1, nil
}

// ClearResetOTP removes the reset code
func (m *MockUserRepository) ClearResetOTP(ctx context.Context, userID string) error {
	if m.ClearResetOTPFunc != nil {
		return m.ClearResetOTPFunc(ctx, userID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
