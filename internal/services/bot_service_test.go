package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/mocks"
)

// Smallest valid PNG header that http.DetectContentType recognises.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func newTestBotService(bots *mocks.MockBotRepository, avatars *mocks.MockAvatarStore, audit domain.AuditLogger) *BotServiceImpl {
	svc := NewBotService(bots, avatars, audit, nil, 64)
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return "bot-1" }
	return svc
}

func testProfile() domain.BotProfile {
	return domain.BotProfile{Name: "Luna", Bio: "night owl", Privacy: domain.PrivacyPublic}
}

func TestBotServiceImpl_Create(t *testing.T) {
	tests := []struct {
		name          string
		ownerID       string
		profile       domain.BotProfile
		avatar        *domain.AvatarUpload
		setupMocks    func(*mocks.MockBotRepository, *mocks.MockAvatarStore)
		expectedError error
		errContains   string
		validate      func(t *testing.T, bot *domain.Bot)
	}{
		{
			name:    "without avatar",
			ownerID: "user-1",
			profile: testProfile(),
			validate: func(t *testing.T, bot *domain.Bot) {
				assert.Equal(t, "bot-1", bot.BotID)
				assert.Equal(t, "user-1", bot.UserID)
				assert.Empty(t, bot.Avatar)
				assert.Equal(t, testNow, bot.CreatedAt)
			},
		},
		{
			name:    "with avatar",
			ownerID: "user-1",
			profile: testProfile(),
			avatar:  &domain.AvatarUpload{Filename: "../face.png", Data: pngBytes},
			setupMocks: func(bots *mocks.MockBotRepository, avatars *mocks.MockAvatarStore) {
				avatars.SaveFunc = func(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
					assert.Equal(t, "bot-1_face.png", name)
					assert.Equal(t, "image/png", contentType)
					assert.Equal(t, int64(len(pngBytes)), size)
					return nil
				}
			},
			validate: func(t *testing.T, bot *domain.Bot) {
				assert.Equal(t, "bot-1_face.png", bot.Avatar)
			},
		},
		{
			name:          "missing name",
			ownerID:       "user-1",
			profile:       domain.BotProfile{Privacy: domain.PrivacyPublic},
			expectedError: domain.ErrInvalidBotProfile,
		},
		{
			name:          "missing owner",
			profile:       testProfile(),
			expectedError: domain.ErrInvalidBotProfile,
		},
		{
			name:          "avatar is not an image",
			ownerID:       "user-1",
			profile:       testProfile(),
			avatar:        &domain.AvatarUpload{Filename: "notes.txt", Data: []byte("hello world")},
			expectedError: domain.ErrInvalidAvatar,
		},
		{
			name:          "avatar too large",
			ownerID:       "user-1",
			profile:       testProfile(),
			avatar:        &domain.AvatarUpload{Filename: "big.png", Data: append(append([]byte{}, pngBytes...), make([]byte, 64)...)},
			expectedError: domain.ErrInvalidAvatar,
		},
		{
			name:    "repository failure removes the stored avatar",
			ownerID: "user-1",
			profile: testProfile(),
			avatar:  &domain.AvatarUpload{Filename: "face.png", Data: pngBytes},
			setupMocks: func(bots *mocks.MockBotRepository, avatars *mocks.MockAvatarStore) {
				bots.CreateFunc = func(ctx context.Context, bot *domain.Bot) error {
					return errors.New("disk full")
				}
				avatars.DeleteFunc = func(ctx context.Context, name string) error {
					assert.Equal(t, "bot-1_face.png", name)
					return nil
				}
			},
			errContains: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bots := mocks.NewMockBotRepository()
			avatars := mocks.NewMockAvatarStore()
			if tt.setupMocks != nil {
				tt.setupMocks(bots, avatars)
			}

			bot, err := newTestBotService(bots, avatars, mocks.NewMockAuditLogger()).Create(context.Background(), tt.ownerID, tt.profile, tt.avatar)

			if tt.expectedError != nil || tt.errContains != "" {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, bot)
				return
			}
			require.NoError(t, err)
			tt.validate(t, bot)
		})
	}
}

func TestBotServiceImpl_Update(t *testing.T) {
	existing := func() *domain.Bot {
		return &domain.Bot{
			BotID:   "bot-1",
			UserID:  "owner",
			Profile: testProfile(),
			Avatar:  "uploads/bot-1_old.png",
		}
	}

	t.Run("owner replaces profile and keeps avatar", func(t *testing.T) {
		bots := mocks.NewMockBotRepository()
		bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) { return existing(), nil }
		var saved *domain.Bot
		bots.UpdateFunc = func(ctx context.Context, bot *domain.Bot) error {
			saved = bot
			return nil
		}

		profile := domain.BotProfile{Name: "Sol", Privacy: domain.PrivacyPrivate}
		bot, err := newTestBotService(bots, mocks.NewMockAvatarStore(), mocks.NewMockAuditLogger()).
			Update(context.Background(), "bot-1", "owner", profile, nil)

		require.NoError(t, err)
		assert.Equal(t, "Sol", saved.Profile.Name)
		assert.Equal(t, "uploads/bot-1_old.png", saved.Avatar)
		assert.Equal(t, "bot-1_old.png", bot.Avatar)
		assert.Equal(t, testNow, saved.UpdatedAt)
	})

	t.Run("new avatar replaces and removes the old one", func(t *testing.T) {
		bots := mocks.NewMockBotRepository()
		bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) { return existing(), nil }
		avatars := mocks.NewMockAvatarStore()
		var deleted string
		avatars.DeleteFunc = func(ctx context.Context, name string) error {
			deleted = name
			return nil
		}

		bot, err := newTestBotService(bots, avatars, mocks.NewMockAuditLogger()).
			Update(context.Background(), "bot-1", "owner", testProfile(), &domain.AvatarUpload{Filename: "new.png", Data: pngBytes})

		require.NoError(t, err)
		assert.Equal(t, "bot-1_new.png", bot.Avatar)
		assert.Equal(t, "bot-1_old.png", deleted)
	})

	t.Run("failed save removes the new avatar and keeps the old one", func(t *testing.T) {
		bots := mocks.NewMockBotRepository()
		bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) { return existing(), nil }
		bots.UpdateFunc = func(ctx context.Context, bot *domain.Bot) error { return errors.New("db down") }
		avatars := mocks.NewMockAvatarStore()
		var deleted []string
		avatars.DeleteFunc = func(ctx context.Context, name string) error {
			deleted = append(deleted, name)
			return nil
		}

		_, err := newTestBotService(bots, avatars, mocks.NewMockAuditLogger()).
			Update(context.Background(), "bot-1", "owner", testProfile(), &domain.AvatarUpload{Filename: "new.png", Data: pngBytes})

		require.Error(t, err)
		assert.Equal(t, []string{"bot-1_new.png"}, deleted)
	})

	t.Run("failed save with a same-name avatar deletes nothing", func(t *testing.T) {
		bots := mocks.NewMockBotRepository()
		bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) { return existing(), nil }
		bots.UpdateFunc = func(ctx context.Context, bot *domain.Bot) error { return errors.New("db down") }
		avatars := mocks.NewMockAvatarStore()
		avatars.DeleteFunc = func(ctx context.Context, name string) error {
			t.Errorf("avatar %s must not be deleted", name)
			return nil
		}

		_, err := newTestBotService(bots, avatars, mocks.NewMockAuditLogger()).
			Update(context.Background(), "bot-1", "owner", testProfile(), &domain.AvatarUpload{Filename: "old.png", Data: pngBytes})

		require.Error(t, err)
	})

	t.Run("non owner is rejected before any write", func(t *testing.T) {
		bots := mocks.NewMockBotRepository()
		bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) { return existing(), nil }
		bots.UpdateFunc = func(ctx context.Context, bot *domain.Bot) error {
			t.Error("update must not be called")
			return nil
		}
		avatars := mocks.NewMockAvatarStore()
		avatars.SaveFunc = func(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
			t.Error("avatar must not be stored")
			return nil
		}
		audit := mocks.NewMockAuditLogger()

		_, err := newTestBotService(bots, avatars, audit).
			Update(context.Background(), "bot-1", "intruder", testProfile(), &domain.AvatarUpload{Filename: "x.png", Data: pngBytes})

		assert.ErrorIs(t, err, domain.ErrNotBotOwner)
		assert.Equal(t, []domain.AuditEventType{domain.BotUpdateDeniedEvent}, audit.Types())
	})

	t.Run("missing bot", func(t *testing.T) {
		_, err := newTestBotService(mocks.NewMockBotRepository(), mocks.NewMockAvatarStore(), nil).
			Update(context.Background(), "nope", "owner", testProfile(), nil)
		assert.ErrorIs(t, err, domain.ErrBotNotFound)
	})
}

func TestBotServiceImpl_Reads(t *testing.T) {
	bots := mocks.NewMockBotRepository()
	bots.ListPublicFunc = func(ctx context.Context) ([]*domain.Bot, error) {
		return []*domain.Bot{{BotID: "a", Avatar: "avatars/a_x.png"}, {BotID: "b"}}, nil
	}
	bots.ListByOwnerFunc = func(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
		assert.Equal(t, "owner", ownerID)
		return []*domain.Bot{{BotID: "c", Avatar: "uploads/avatars/c_y.png"}}, nil
	}
	bots.FindByIDFunc = func(ctx context.Context, botID string) (*domain.Bot, error) {
		return &domain.Bot{BotID: botID, Avatar: `uploads\d_z.png`}, nil
	}
	svc := newTestBotService(bots, mocks.NewMockAvatarStore(), nil)
	ctx := context.Background()

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a_x.png", public[0].Avatar)
	assert.Empty(t, public[1].Avatar)

	mine, err := svc.ListMine(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "c_y.png", mine[0].Avatar)

	_, err = svc.ListMine(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidBotProfile)

	bot, err := svc.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "d_z.png", bot.Avatar)
}

func TestBotServiceImpl_OpenAvatar(t *testing.T) {
	avatars := mocks.NewMockAvatarStore()
	avatars.OpenFunc = func(ctx context.Context, name string) (io.ReadCloser, error) {
		assert.Equal(t, "bot-1_face.png", name)
		return io.NopCloser(bytes.NewReader(pngBytes)), nil
	}

	rc, err := newTestBotService(mocks.NewMockBotRepository(), avatars, nil).
		OpenAvatar(context.Background(), "uploads/bot-1_face.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}
