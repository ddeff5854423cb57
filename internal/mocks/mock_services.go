package mocks

import (
	"context"
	"io"

	"github.com/you/companionsvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	SignupFunc               func(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error)
	VerifyEmailFunc          func(ctx context.Context, email, otp string) (*domain.User, error)
	LoginFunc                func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	VerifyPasswordResetFunc  func(ctx context.Context, email, otp, newPassword string) (bool, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Signup registers a new account
func (m *MockAuthService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	// Default behavior: pending signup with the email sent
	return &domain.SignupResult{Email: req.Email, UserID: "user-1", Pending: true, EmailSent: true}, nil
}

// VerifyEmail confirms a pending signup
func (m *MockAuthService) VerifyEmail(ctx context.Context, email, otp string) (*domain.User, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, email, otp)
	}
	return &domain.User{UserID: "user-1", Email: email, IsVerified: true}, nil
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.AuthResult{
		User:        &domain.User{UserID: "user-1", FullName: "Test User", Email: email, IsVerified: true},
		AccessToken: "access_token_user-1",
		ExpiresIn:   3600,
	}, nil
}

// RequestPasswordReset issues a reset code
func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

// VerifyPasswordReset checks a reset code
func (m *MockAuthService) VerifyPasswordReset(ctx context.Context, email, otp, newPassword string) (bool, error) {
	if m.VerifyPasswordResetFunc != nil {
		return m.VerifyPasswordResetFunc(ctx, email, otp, newPassword)
	}
	return newPassword != "", nil
}

// MockBotService implements domain.BotService interface for testing
type MockBotService struct {
	CreateFunc     func(ctx context.Context, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error)
	UpdateFunc     func(ctx context.Context, botID, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error)
	ListPublicFunc func(ctx context.Context) ([]*domain.Bot, error)
	ListMineFunc   func(ctx context.Context, ownerID string) ([]*domain.Bot, error)
	GetFunc        func(ctx context.Context, botID string) (*domain.Bot, error)
	OpenAvatarFunc func(ctx context.Context, name string) (io.ReadCloser, error)
}

// NewMockBotService creates a new MockBotService with default behaviors
func NewMockBotService() *MockBotService {
	return &MockBotService{}
}

// Create creates a bot
func (m *MockBotService) Create(ctx context.Context, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, profile, avatar)
	}
	return &domain.Bot{BotID: "bot-1", UserID: ownerID, Profile: profile}, nil
}

// Update updates a bot
func (m *MockBotService) Update(ctx context.Context, botID, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, botID, ownerID, profile, avatar)
	}
	return &domain.Bot{BotID: botID, UserID: ownerID, Profile: profile}, nil
}

// ListPublic lists public bots
func (m *MockBotService) ListPublic(ctx context.Context) ([]*domain.Bot, error) {
	if m.ListPublicFunc != nil {
		return m.ListPublicFunc(ctx)
	}
	return []*domain.Bot{}, nil
}

// ListMine lists the bots of one owner
func (m *MockBotService) ListMine(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, ownerID)
	}
	return []*domain.Bot{}, nil
}

// Get loads a bot
func (m *MockBotService) Get(ctx context.Context, botID string) (*domain.Bot, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, botID)
	}
	return nil, domain.ErrBotNotFound
}

// OpenAvatar streams an avatar
func (m *MockBotService) OpenAvatar(ctx context.Context, name string) (io.ReadCloser, error) {
	if m.OpenAvatarFunc != nil {
		return m.OpenAvatarFunc(ctx, name)
	}
	return nil, domain.ErrAvatarNotFound
}

// MockChatService implements domain.ChatService interface for testing
type MockChatService struct {
	AskFunc     func(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error)
	HistoryFunc func(ctx context.Context, userID, botID string) ([]*domain.ChatMessage, error)
	RestartFunc func(ctx context.Context, userID, botID string) (int64, error)
}

// NewMockChatService creates a new MockChatService with default behaviors
func NewMockChatService() *MockChatService {
	return &MockChatService{}
}

// Ask sends a chat turn
func (m *MockChatService) Ask(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return &domain.ChatMessage{
		ChatID:    domain.ChatID(req.UserID, req.BotID),
		UserID:    req.UserID,
		BotID:     req.BotID,
		Message:   req.Message,
		Response:  "hello",
		MessageID: "msg-1",
	}, nil
}

// History returns a conversation
func (m *MockChatService) History(ctx context.Context, userID, botID string) ([]*domain.ChatMessage, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, botID)
	}
	return []*domain.ChatMessage{}, nil
}

// Restart clears a conversation
func (m *MockChatService) Restart(ctx context.Context, userID, botID string) (int64, error) {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, userID, botID)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var (
	_ domain.AuthService = (*MockAuthService)(nil)
	_ domain.BotService  = (*MockBotService)(nil)
	_ domain.ChatService = (*MockChatService)(nil)
)
