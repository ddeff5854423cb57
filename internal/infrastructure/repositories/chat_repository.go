package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/you/companionsvc/domain"
	"gorm.io/gorm"
)

// ChatRepositoryImpl implements domain.ChatRepository using GORM
type ChatRepositoryImpl struct {
	db *gorm.DB
}

// DBChatMessage is one stored message/response exchange
type DBChatMessage struct {
	ID              uint      `gorm:"primaryKey"`
	UID             string    `gorm:"uniqueIndex;size:36;not null"`
	ChatID          string    `gorm:"index:idx_chat_time,priority:1;size:160;not null"`
	UserID          string    `gorm:"size:64;not null"`
	BotID           string    `gorm:"size:64;not null"`
	Message         string    `gorm:"type:text"`
	Response        string    `gorm:"type:text"`
	MessageID       string    `gorm:"index;size:128"`
	IsSystemMessage bool      `gorm:"not null;default:false"`
	Timestamp       time.Time `gorm:"index:idx_chat_time,priority:2;not null"`
}

// TableName returns the table name for GORM
func (DBChatMessage) TableName() string {
	return "chat_messages"
}

// NewChatRepository creates a new chat log repository
func NewChatRepository(db *gorm.DB) domain.ChatRepository {
	return &ChatRepositoryImpl{db: db}
}

// Append implements domain.ChatRepository
func (r *ChatRepositoryImpl) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(chatToDB(msg)).Error
}

// History implements domain.ChatRepository
func (r *ChatRepositoryImpl) History(ctx context.Context, chatID string) ([]*domain.ChatMessage, error) {
	var rows []DBChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return chatRowsToDomain(rows), nil
}

// Recent implements domain.ChatRepository
func (r *ChatRepositoryImpl) Recent(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		return []*domain.ChatMessage{}, nil
	}
	var rows []DBChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return chatRowsToDomain(rows), nil
}

// FindByMessageID implements domain.ChatRepository
func (r *ChatRepositoryImpl) FindByMessageID(ctx context.Context, chatID, messageID string) (*domain.ChatMessage, error) {
	var row DBChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatID, messageID).
		Order("id ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return chatToDomain(&row), nil
}

// DeleteConversation implements domain.ChatRepository
func (r *ChatRepositoryImpl) DeleteConversation(ctx context.Context, chatID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&DBChatMessage{})
	return res.RowsAffected, res.Error
}

func chatToDB(msg *domain.ChatMessage) *DBChatMessage {
	return &DBChatMessage{
		UID:             msg.ID,
		ChatID:          msg.ChatID,
		UserID:          msg.UserID,
		BotID:           msg.BotID,
		Message:         msg.Message,
		Response:        msg.Response,
		MessageID:       msg.MessageID,
		IsSystemMessage: msg.IsSystemMessage,
		Timestamp:       msg.Timestamp,
	}
}

func chatToDomain(row *DBChatMessage) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:              row.UID,
		ChatID:          row.ChatID,
		UserID:          row.UserID,
		BotID:           row.BotID,
		Message:         row.Message,
		Response:        row.Response,
		MessageID:       row.MessageID,
		IsSystemMessage: row.IsSystemMessage,
		Timestamp:       row.Timestamp.UTC(),
	}
}

func chatRowsToDomain(rows []DBChatMessage) []*domain.ChatMessage {
	out := make([]*domain.ChatMessage, 0, len(rows))
	for i := range rows {
		out = append(out, chatToDomain(&rows[i]))
	}
	return out
}
