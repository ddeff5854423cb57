package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

// ChatHandlers handles chat log HTTP requests
type ChatHandlers struct {
	chatSvc domain.ChatService
	logger  *zap.Logger
}

// NewChatHandlers creates new chat handlers
func NewChatHandlers(chatSvc domain.ChatService, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{chatSvc: chatSvc, logger: logger}
}

// AskRequest represents a chat turn
type AskRequest struct {
	UserID          string  `json:"user_id" binding:"required"`
	BotID           string  `json:"bot_id" binding:"required"`
	Message         string  `json:"message"`
	IsSystemMessage bool    `json:"is_system_message"`
	Response        *string `json:"response"`
	MessageID       string  `json:"message_id"`
}

// ConversationQuery identifies a conversation
type ConversationQuery struct {
	UserID string `form:"user_id" binding:"required"`
	BotID  string `form:"bot_id" binding:"required"`
}

// ChatMessageResponse is the wire form of a chat message
type ChatMessageResponse struct {
	ID              string `json:"id"`
	ChatID          string `json:"chat_id"`
	UserID          string `json:"user_id"`
	BotID           string `json:"bot_id"`
	Message         string `json:"message"`
	Response        string `json:"response"`
	MessageID       string `json:"message_id"`
	IsSystemMessage bool   `json:"is_system_message"`
	Timestamp       string `json:"timestamp"`
}

func toChatMessageResponse(m *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:              m.ID,
		ChatID:          m.ChatID,
		UserID:          m.UserID,
		BotID:           m.BotID,
		Message:         m.Message,
		Response:        m.Response,
		MessageID:       m.MessageID,
		IsSystemMessage: m.IsSystemMessage,
		Timestamp:       formatTime(m.Timestamp),
	}
}

var chatMessages = messages{
	domain.ErrBotNotFound: "Bot not found",
	domain.ErrChatModel:   "Failed to get a response from the bot",
}

// Ask handles POST /chat/ask
func (h *ChatHandlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.chatSvc.Ask(c.Request.Context(), domain.AskRequest{
		UserID:          req.UserID,
		BotID:           req.BotID,
		Message:         req.Message,
		IsSystemMessage: req.IsSystemMessage,
		Response:        req.Response,
		MessageID:       req.MessageID,
	})
	if err != nil {
		respondError(c, h.logger, err, chatMessages)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"response":   msg.Response,
		"message_id": msg.MessageID,
	})
}

// History handles GET /chat/history
func (h *ChatHandlers) History(c *gin.Context) {
	var q ConversationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	history, err := h.chatSvc.History(c.Request.Context(), q.UserID, q.BotID)
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}

	data := make([]ChatMessageResponse, 0, len(history))
	for _, m := range history {
		data = append(data, toChatMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// Restart handles DELETE /chat/restart and DELETE /chat/history
func (h *ChatHandlers) Restart(c *gin.Context) {
	var q ConversationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	deleted, err := h.chatSvc.Restart(c.Request.Context(), q.UserID, q.BotID)
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat restarted", "deleted": deleted})
}
