package mocks

import (
	"context"

	"github.com/you/companionsvc/domain"
)

// MockChatRepository implements domain.ChatRepository interface for testing
type MockChatRepository struct {
	AppendFunc             func(ctx context.Context, msg *domain.ChatMessage) error
	HistoryFunc            func(ctx context.Context, chatID string) ([]*domain.ChatMessage, error)
	RecentFunc             func(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error)
	FindByMessageIDFunc    func(ctx context.Context, chatID, messageID string) (*domain.ChatMessage, error)
	DeleteConversationFunc func(ctx context.Context, chatID string) (int64, error)
}

// NewMockChatRepository creates a new MockChatRepository with default behaviors
func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{}
}

// Append stores a message
func (m *MockChatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, msg)
	}
	return nil
}

// History returns a conversation
func (m *MockChatRepository) History(ctx context.Context, chatID string) ([]*domain.ChatMessage, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, chatID)
	}
	return []*domain.ChatMessage{}, nil
}

// Recent returns the latest messages
func (m *MockChatRepository) Recent(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, chatID, limit)
	}
	return []*domain.ChatMessage{}, nil
}

// FindByMessageID loads a message by client id
func (m *MockChatRepository) FindByMessageID(ctx context.Context, chatID, messageID string) (*domain.ChatMessage, error) {
	if m.FindByMessageIDFunc != nil {
		return m.FindByMessageIDFunc(ctx, chatID, messageID)
	}
	return nil, domain.ErrMessageNotFound
}

// DeleteConversation removes a conversation
func (m *MockChatRepository) DeleteConversation(ctx context.Context, chatID string) (int64, error) {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, chatID)
	}
	return 0, nil
}

// MockChatModel implements domain.ChatModel interface for testing
type MockChatModel struct {
	ReplyFunc func(ctx context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error)
}

// NewMockChatModel creates a new MockChatModel with default behaviors
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Reply produces a bot reply
func (m *MockChatModel) Reply(ctx context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error) {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, bot, history, message)
	}
	// Default behavior: echo
	return bot.Profile.Name + ": " + message, nil
}

// Compile-time interface compliance verification
var (
	_ domain.ChatRepository = (*MockChatRepository)(nil)
	_ domain.ChatModel      = (*MockChatModel)(nil)
)
