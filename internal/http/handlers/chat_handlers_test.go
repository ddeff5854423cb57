package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/mocks"
)

func newChatRouter(svc *mocks.MockChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandlers(svc, zap.NewNop())
	r := gin.New()
	r.POST("/chat/ask", h.Ask)
	r.GET("/chat/history", h.History)
	r.DELETE("/chat/restart", h.Restart)
	r.DELETE("/chat/history", h.Restart)
	return r
}

func TestChatHandlers_Ask(t *testing.T) {
	tests := []struct {
		name           string
		body           gin.H
		setupMocks     func(*mocks.MockChatService)
		expectedStatus int
		validate       func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "success",
			body:           gin.H{"user_id": "u1", "bot_id": "b1", "message": "hi"},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "success", body["status"])
				assert.Equal(t, "hello", body["response"])
				assert.Equal(t, "msg-1", body["message_id"])
			},
		},
		{
			name: "scripted system message is passed through",
			body: gin.H{"user_id": "u1", "bot_id": "b1", "is_system_message": true, "response": "Hi, I'm Luna", "message_id": "first"},
			setupMocks: func(svc *mocks.MockChatService) {
				svc.AskFunc = func(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error) {
					require.NotNil(t, req.Response)
					assert.True(t, req.IsSystemMessage)
					assert.Equal(t, "first", req.MessageID)
					return &domain.ChatMessage{Response: *req.Response, MessageID: req.MessageID}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Hi, I'm Luna", body["response"])
			},
		},
		{
			name: "unknown bot is a 404",
			body: gin.H{"user_id": "u1", "bot_id": "nope", "message": "hi"},
			setupMocks: func(svc *mocks.MockChatService) {
				svc.AskFunc = func(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error) {
					return nil, domain.ErrBotNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, "Bot not found", body["message"])
			},
		},
		{
			name: "model failure hides the provider error",
			body: gin.H{"user_id": "u1", "bot_id": "b1", "message": "hi"},
			setupMocks: func(svc *mocks.MockChatService) {
				svc.AskFunc = func(ctx context.Context, req domain.AskRequest) (*domain.ChatMessage, error) {
					return nil, fmt.Errorf("%w: api key sk-123 rejected", domain.ErrChatModel)
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Failed to get a response from the bot", body["message"])
			},
		},
		{
			name:           "missing bot_id",
			body:           gin.H{"user_id": "u1", "message": "hi"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockChatService()
			if tt.setupMocks != nil {
				tt.setupMocks(svc)
			}

			w, body := doJSON(t, newChatRouter(svc), http.MethodPost, "/chat/ask", tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, body)
			}
		})
	}
}

func TestChatHandlers_History(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	svc := mocks.NewMockChatService()
	svc.HistoryFunc = func(ctx context.Context, userID, botID string) ([]*domain.ChatMessage, error) {
		return []*domain.ChatMessage{{
			ID: "id-1", ChatID: domain.ChatID(userID, botID), UserID: userID, BotID: botID,
			Message: "hi", Response: "hello", MessageID: "m1", Timestamp: ts,
		}}, nil
	}

	w, body := doJSON(t, newChatRouter(svc), http.MethodGet, "/chat/history?user_id=u1&bot_id=b1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body["status"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	item := data[0].(map[string]interface{})
	assert.Equal(t, "u1_b1", item["chat_id"])
	assert.Equal(t, "2024-05-01T12:00:00.000000123Z", item["timestamp"])
	assert.Equal(t, false, item["is_system_message"])

	t.Run("missing query", func(t *testing.T) {
		w, _ := doJSON(t, newChatRouter(svc), http.MethodGet, "/chat/history?user_id=u1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestChatHandlers_Restart(t *testing.T) {
	for _, path := range []string{"/chat/restart", "/chat/history"} {
		t.Run(path, func(t *testing.T) {
			svc := mocks.NewMockChatService()
			svc.RestartFunc = func(ctx context.Context, userID, botID string) (int64, error) {
				assert.Equal(t, "u1", userID)
				assert.Equal(t, "b1", botID)
				return 3, nil
			}

			w, body := doJSON(t, newChatRouter(svc), http.MethodDelete, path+"?user_id=u1&bot_id=b1", nil)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "Chat restarted", body["message"])
			assert.Equal(t, float64(3), body["deleted"])
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		svc := mocks.NewMockChatService()
		svc.RestartFunc = func(ctx context.Context, userID, botID string) (int64, error) {
			return 0, errors.New("mongo down")
		}

		w, body := doJSON(t, newChatRouter(svc), http.MethodDelete, "/chat/restart?user_id=u1&bot_id=b1", nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", body["message"])
	})
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		checks         map[string]Pinger
		expectedStatus int
	}{
		{"all healthy", map[string]Pinger{"redis": fakePinger{}}, http.StatusOK},
		{"backend down", map[string]Pinger{"redis": fakePinger{}, "postgres": fakePinger{err: errors.New("refused")}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(tt.checks)
			r := gin.New()
			r.GET("/health", h.Health)
			r.GET("/ready", h.Ready)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"ok":true}`, w.Body.String())

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
