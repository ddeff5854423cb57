package mocks

import (
	"context"

	"github.com/you/companionsvc/domain"
)

// MockPendingSignupStore implements domain.PendingSignupStore interface for testing
type MockPendingSignupStore struct {
	CreateFunc            func(ctx context.Context, p *domain.PendingSignup) error
	GetFunc               func(ctx context.Context, email string) (*domain.PendingSignup, error)
	TakeFunc              func(ctx context.Context, email string) (*domain.PendingSignup, error)
	DeleteFunc            func(ctx context.Context, email string) error
	IncrementAttemptsFunc func(ctx context.Context, email string) (int64, error)
}

// NewMockPendingSignupStore creates a new MockPendingSignupStore with default behaviors
func NewMockPendingSignupStore() *MockPendingSignupStore {
	return &MockPendingSignupStore{}
}

// Create stores a pending signup
func (m *MockPendingSignupStore) Create(ctx context.Context, p *domain.PendingSignup) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

// Get reads a pending signup
func (m *MockPendingSignupStore) Get(ctx context.Context, email string) (*domain.PendingSignup, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, email)
	}
	// Default behavior: nothing pending
	return nil, domain.ErrPendingSignupNotFound
}

// Take reads and removes a pending signup
func (m *MockPendingSignupStore) Take(ctx context.Context, email string) (*domain.PendingSignup, error) {
	if m.TakeFunc != nil {
		return m.TakeFunc(ctx, email)
	}
	return nil, domain.ErrPendingSignupNotFound
}

// Delete removes a pending signup
func (m *MockPendingSignupStore) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	return nil
}

// IncrementAttempts counts a wrong code
func (m *MockPendingSignupStore) IncrementAttempts(ctx context.Context, email string) (int64, error) {
	if m.IncrementAttemptsFunc != nil {
		return m.IncrementAttemptsFunc(ctx, email)
	}
	return 1, nil
}

// Compile-time interface compliance verification
var _ domain.PendingSignupStore = (*MockPendingSignupStore)(nil)
