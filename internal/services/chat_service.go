package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

// ChatServiceImpl implements domain.ChatService
type ChatServiceImpl struct {
	chats         domain.ChatRepository
	bots          domain.BotRepository
	model         domain.ChatModel
	audit         domain.AuditLogger
	logger        *zap.Logger
	historyWindow int

	now   func() time.Time
	newID func() string
}

// NewChatService creates a new chat log service
func NewChatService(
	chats domain.ChatRepository,
	bots domain.BotRepository,
	model domain.ChatModel,
	audit domain.AuditLogger,
	logger *zap.Logger,
	historyWindow int,
) *ChatServiceImpl {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatServiceImpl{
		chats:         chats,
		bots:          bots,
		model:         model,
		audit:         audit,
		logger:        logger,
		historyWindow: historyWindow,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

var _ domain.ChatService = (*ChatServiceImpl)(nil)

// Ask implements domain.ChatService
func (s *ChatServiceImpl) Ask(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.BotID) == "" {
		return nil, fmt.Errorf("%w: user_id and bot_id are required", domain.ErrInvalidChatRequest)
	}
	chatID := domain.ChatID(req.UserID, req.BotID)

	// A retried message id is answered from the log.
	if req.MessageID != "" {
		existing, err := s.chats.FindByMessageID(ctx, chatID, req.MessageID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrMessageNotFound) {
			return nil, err
		}
	}

	// Scripted lines, such as a bot's first message, are stored as given.
	if req.IsSystemMessage && req.Response != nil {
		return s.append(ctx, chatID, req, *req.Response)
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidChatRequest)
	}

	bot, err := s.bots.FindByID(ctx, req.BotID)
	if err != nil {
		return nil, err
	}

	var history []*domain.ChatMessage
	if s.historyWindow > 0 {
		history, err = s.chats.Recent(ctx, chatID, s.historyWindow)
		if err != nil {
			return nil, err
		}
	}

	reply, err := s.model.Reply(ctx, bot, history, req.Message)
	if err != nil {
		if !errors.Is(err, domain.ErrChatModel) {
			err = fmt.Errorf("%w: %v", domain.ErrChatModel, err)
		}
		return nil, err
	}

	return s.append(ctx, chatID, req, reply)
}

func (s *ChatServiceImpl) append(ctx context.Context, chatID string, req domain.AskRequest, response string) (*domain.ChatMessage, error) {
	messageID := req.MessageID
	if messageID == "" {
		messageID = s.newID()
	}

	msg := &domain.ChatMessage{
		ID:              s.newID(),
		ChatID:          chatID,
		UserID:          req.UserID,
		BotID:           req.BotID,
		Message:         req.Message,
		Response:        response,
		MessageID:       messageID,
		IsSystemMessage: req.IsSystemMessage,
		Timestamp:       s.now(),
	}
	if err := s.chats.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History implements domain.ChatService
func (s *ChatServiceImpl) History(ctx context.Context, userID, botID string) ([]*domain.ChatMessage, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(botID) == "" {
		return nil, fmt.Errorf("%w: user_id and bot_id are required", domain.ErrInvalidChatRequest)
	}
	return s.chats.History(ctx, domain.ChatID(userID, botID))
}

// Restart implements domain.ChatService. Restarting an empty conversation
// is not an error.
func (s *ChatServiceImpl) Restart(ctx context.Context, userID, botID string) (int64, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(botID) == "" {
		return 0, fmt.Errorf("%w: user_id and bot_id are required", domain.ErrInvalidChatRequest)
	}

	deleted, err := s.chats.DeleteConversation(ctx, domain.ChatID(userID, botID))
	if err != nil {
		return 0, err
	}

	event := domain.NewAuditEvent(domain.ChatRestartedEvent, userID).
		WithMetadata("bot_id", botID).
		WithMetadata("deleted", deleted)
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn("audit event dropped", zap.String("event", string(event.EventType)), zap.Error(err))
	}
	return deleted, nil
}
