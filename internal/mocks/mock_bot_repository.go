package mocks

import (
	"context"
	"io"

	"github.com/you/companionsvc/domain"
)

// MockBotRepository implements domain.BotRepository interface for testing
type MockBotRepository struct {
	CreateFunc      func(ctx context.Context, bot *domain.Bot) error
	FindByIDFunc    func(ctx context.Context, botID string) (*domain.Bot, error)
	UpdateFunc      func(ctx context.Context, bot *domain.Bot) error
	ListPublicFunc  func(ctx context.Context) ([]*domain.Bot, error)
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]*domain.Bot, error)
}

// NewMockBotRepository creates a new MockBotRepository with default behaviors
func NewMockBotRepository() *MockBotRepository {
	return &MockBotRepository{}
}

// Create stores a bot
func (m *MockBotRepository) Create(ctx context.Context, bot *domain.Bot) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, bot)
	}
	return nil
}

// FindByID loads a bot
func (m *MockBotRepository) FindByID(ctx context.Context, botID string) (*domain.Bot, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, botID)
	}
	// Default behavior: not found
	return nil, domain.ErrBotNotFound
}

// Update replaces a bot owned by bot.UserID
func (m *MockBotRepository) Update(ctx context.Context, bot *domain.Bot) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, bot)
	}
	return nil
}

// ListPublic lists public bots
func (m *MockBotRepository) ListPublic(ctx context.Context) ([]*domain.Bot, error) {
	if m.ListPublicFunc != nil {
		return m.ListPublicFunc(ctx)
	}
	return []*domain.Bot{}, nil
}

// ListByOwner lists the bots of one user
func (m *MockBotRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return []*domain.Bot{}, nil
}

// MockAvatarStore implements domain.AvatarStore interface for testing
type MockAvatarStore struct {
	SaveFunc   func(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	OpenFunc   func(ctx context.Context, name string) (io.ReadCloser, error)
	DeleteFunc func(ctx context.Context, name string) error
}

// NewMockAvatarStore creates a new MockAvatarStore with default behaviors
func NewMockAvatarStore() *MockAvatarStore {
	return &MockAvatarStore{}
}

// Save stores an avatar
func (m *MockAvatarStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, r, size, contentType)
	}
	return nil
}

// Open reads an avatar
func (m *MockAvatarStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, name)
	}
	return nil, domain.ErrAvatarNotFound
}

// Delete removes an avatar
func (m *MockAvatarStore) Delete(ctx context.Context, name string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.BotRepository = (*MockBotRepository)(nil)
	_ domain.AvatarStore   = (*MockAvatarStore)(nil)
)
