package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/app"
	"github.com/you/companionsvc/internal/config"
	"github.com/you/companionsvc/internal/mocks"
	testconfig "github.com/you/companionsvc/internal/tests/config"
)

// TestServer runs the full router in-process over sqlite and miniredis
type TestServer struct {
	Router    *gin.Engine
	Container *app.Container
	Config    *config.Config
	DB        *gorm.DB
	Redis     *miniredis.Miniredis
	Mailer    *mocks.MockNotificationService
	Model     *StubChatModel
}

// NewTestServer wires a server for one test. configure runs before the
// container is assembled.
func NewTestServer(t *testing.T, configure ...func(*config.Config)) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := testconfig.LoadTestConfig(t)
	for _, fn := range configure {
		fn(cfg)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mailer := mocks.NewMockNotificationService()
	model := &StubChatModel{}

	container, err := app.Assemble(context.Background(), cfg, zap.NewNop(), app.Infrastructure{
		DB:        db,
		Redis:     rdb,
		ChatModel: model,
		Notifier:  mailer,
	})
	if err != nil {
		t.Fatalf("Failed to assemble container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	return &TestServer{
		Router:    container.Router(),
		Container: container,
		Config:    cfg,
		DB:        db,
		Redis:     mr,
		Mailer:    mailer,
		Model:     model,
	}
}

// ModelCall is one captured chat model invocation
type ModelCall struct {
	BotID      string
	HistoryLen int
	Message    string
}

// StubChatModel answers with a fixed pattern and records every call
type StubChatModel struct {
	ReplyFunc func(bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error)

	mu    sync.Mutex
	calls []ModelCall
}

// Reply implements domain.ChatModel
func (m *StubChatModel) Reply(_ context.Context, bot *domain.Bot, history []*domain.ChatMessage, message string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ModelCall{BotID: bot.BotID, HistoryLen: len(history), Message: message})
	m.mu.Unlock()

	if m.ReplyFunc != nil {
		return m.ReplyFunc(bot, history, message)
	}
	return fmt.Sprintf("%s heard: %s", bot.Profile.Name, message), nil
}

// Calls returns a copy of the recorded calls
func (m *StubChatModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.calls...)
}

var _ domain.ChatModel = (*StubChatModel)(nil)
