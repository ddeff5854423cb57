package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/companionsvc/domain"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func chatRepoBackends(t *testing.T) map[string]func(t *testing.T) domain.ChatRepository {
	backends := map[string]func(t *testing.T) domain.ChatRepository{
		"database": func(t *testing.T) domain.ChatRepository {
			return NewChatRepository(setupTestDB(t))
		},
	}

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		return backends
	}
	backends["mongo"] = func(t *testing.T) domain.ChatRepository {
		ctx := context.Background()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		require.NoError(t, err)

		db := client.Database("companion_test_" + uuid.NewString()[:8])
		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = client.Disconnect(context.Background())
		})

		repo := NewChatMongoRepository(db)
		require.NoError(t, repo.EnsureIndexes(ctx))
		return repo
	}
	return backends
}

func newTestMessage(userID, botID, text string, ts time.Time) *domain.ChatMessage {
	return &domain.ChatMessage{
		ChatID:    domain.ChatID(userID, botID),
		UserID:    userID,
		BotID:     botID,
		Message:   text,
		Response:  "re: " + text,
		Timestamp: ts,
	}
}

func TestChatRepositories_AppendAndHistory(t *testing.T) {
	for name, newRepo := range chatRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			// appended out of order on purpose
			second := newTestMessage("u1", "b1", "second", base.Add(time.Minute))
			first := newTestMessage("u1", "b1", "first", base)
			other := newTestMessage("u2", "b1", "other", base)

			require.NoError(t, repo.Append(ctx, second))
			require.NoError(t, repo.Append(ctx, first))
			require.NoError(t, repo.Append(ctx, other))
			assert.NotEmpty(t, first.ID)

			history, err := repo.History(ctx, domain.ChatID("u1", "b1"))
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, "first", history[0].Message)
			assert.Equal(t, "second", history[1].Message)
			assert.Equal(t, "re: first", history[0].Response)
			assert.Equal(t, first.ID, history[0].ID)
			assert.True(t, history[0].Timestamp.Equal(base))
		})
	}
}

func TestChatRepositories_Recent(t *testing.T) {
	for name, newRepo := range chatRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			for i := 0; i < 5; i++ {
				msg := newTestMessage("u1", "b1", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
				require.NoError(t, repo.Append(ctx, msg))
			}

			recent, err := repo.Recent(ctx, domain.ChatID("u1", "b1"), 3)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			assert.Equal(t, "m2", recent[0].Message)
			assert.Equal(t, "m4", recent[2].Message)

			none, err := repo.Recent(ctx, domain.ChatID("u1", "b1"), 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestChatRepositories_FindByMessageID(t *testing.T) {
	for name, newRepo := range chatRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			msg := newTestMessage("u1", "b1", "hi", time.Now().UTC())
			msg.MessageID = "client-42"
			require.NoError(t, repo.Append(ctx, msg))

			got, err := repo.FindByMessageID(ctx, domain.ChatID("u1", "b1"), "client-42")
			require.NoError(t, err)
			assert.Equal(t, "hi", got.Message)

			_, err = repo.FindByMessageID(ctx, domain.ChatID("u2", "b1"), "client-42")
			assert.ErrorIs(t, err, domain.ErrMessageNotFound)
		})
	}
}

func TestChatRepositories_DeleteConversation(t *testing.T) {
	for name, newRepo := range chatRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now().UTC()

			require.NoError(t, repo.Append(ctx, newTestMessage("u1", "b1", "a", now)))
			require.NoError(t, repo.Append(ctx, newTestMessage("u1", "b1", "b", now)))
			require.NoError(t, repo.Append(ctx, newTestMessage("u1", "b2", "keep", now)))

			deleted, err := repo.DeleteConversation(ctx, domain.ChatID("u1", "b1"))
			require.NoError(t, err)
			assert.Equal(t, int64(2), deleted)

			history, err := repo.History(ctx, domain.ChatID("u1", "b1"))
			require.NoError(t, err)
			assert.Empty(t, history)

			kept, err := repo.History(ctx, domain.ChatID("u1", "b2"))
			require.NoError(t, err)
			assert.Len(t, kept, 1)

			deleted, err = repo.DeleteConversation(ctx, domain.ChatID("u1", "b1"))
			require.NoError(t, err)
			assert.Equal(t, int64(0), deleted)
		})
	}
}
