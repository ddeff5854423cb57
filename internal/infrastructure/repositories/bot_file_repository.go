package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/you/companionsvc/domain"
	"go.uber.org/zap"
)

// fileBot is the on-disk shape of a bot in the catalog file
type fileBot struct {
	BotID        string     `json:"bot_id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Bio          string     `json:"bio"`
	FirstMessage string     `json:"first_message"`
	Situation    string     `json:"situation"`
	BackStory    string     `json:"back_story"`
	Personality  string     `json:"personality"`
	ChattingWay  string     `json:"chatting_way"`
	TypeOfBot    string     `json:"type_of_bot"`
	Privacy      string     `json:"privacy"`
	Avatar       *string    `json:"avatar"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// BotFileRepositoryImpl implements domain.BotRepository on a single JSON
// array file. Every mutation rewrites the file through a temp file and rename
// while holding the mutex.
type BotFileRepositoryImpl struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewBotFileRepository creates a file backed bot catalog at path
func NewBotFileRepository(path string, logger *zap.Logger) (*BotFileRepositoryImpl, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bots directory: %w", err)
	}
	return &BotFileRepositoryImpl{path: path, logger: logger, now: time.Now}, nil
}

// Create implements domain.BotRepository
func (r *BotFileRepositoryImpl) Create(ctx context.Context, bot *domain.Bot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bots, err := r.load()
	if err != nil {
		return err
	}
	for _, b := range bots {
		if b.BotID == bot.BotID {
			return fmt.Errorf("bot %s already exists", bot.BotID)
		}
	}

	now := r.now().UTC()
	bot.CreatedAt, bot.UpdatedAt = now, now
	bots = append(bots, botToFile(bot))
	return r.save(bots)
}

// FindByID implements domain.BotRepository
func (r *BotFileRepositoryImpl) FindByID(ctx context.Context, botID string) (*domain.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bots, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, b := range bots {
		if b.BotID == botID {
			return fileToBot(b), nil
		}
	}
	return nil, domain.ErrBotNotFound
}

// Update implements domain.BotRepository
func (r *BotFileRepositoryImpl) Update(ctx context.Context, bot *domain.Bot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bots, err := r.load()
	if err != nil {
		return err
	}

	for i, b := range bots {
		if b.BotID != bot.BotID {
			continue
		}
		if b.UserID != bot.UserID {
			return domain.ErrNotBotOwner
		}
		updated := botToFile(bot)
		updated.CreatedAt = b.CreatedAt
		now := r.now().UTC()
		updated.UpdatedAt = &now
		bots[i] = updated
		return r.save(bots)
	}
	return domain.ErrBotNotFound
}

// ListPublic implements domain.BotRepository
func (r *BotFileRepositoryImpl) ListPublic(ctx context.Context) ([]*domain.Bot, error) {
	return r.filter(func(b fileBot) bool { return b.Privacy == domain.PrivacyPublic })
}

// ListByOwner implements domain.BotRepository
func (r *BotFileRepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
	return r.filter(func(b fileBot) bool { return b.UserID == ownerID })
}

func (r *BotFileRepositoryImpl) filter(keep func(fileBot) bool) ([]*domain.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bots, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Bot, 0, len(bots))
	for _, b := range bots {
		if keep(b) {
			out = append(out, fileToBot(b))
		}
	}
	return out, nil
}

// load reads the whole catalog. A missing, empty or corrupt file reads as
// an empty catalog.
func (r *BotFileRepositoryImpl) load() ([]fileBot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []fileBot{}, nil
		}
		return nil, fmt.Errorf("read bots file: %w", err)
	}
	if len(data) == 0 {
		return []fileBot{}, nil
	}

	var bots []fileBot
	if err := json.Unmarshal(data, &bots); err != nil {
		r.logger.Warn("bots file is not a valid JSON array, treating as empty",
			zap.String("path", r.path), zap.Error(err))
		return []fileBot{}, nil
	}
	return bots, nil
}

func (r *BotFileRepositoryImpl) save(bots []fileBot) error {
	data, err := json.MarshalIndent(bots, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bots: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".bots-*.json")
	if err != nil {
		return fmt.Errorf("create temp bots file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp bots file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp bots file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp bots file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace bots file: %w", err)
	}
	return nil
}

func botToFile(bot *domain.Bot) fileBot {
	p := bot.Profile
	fb := fileBot{
		BotID:        bot.BotID,
		UserID:       bot.UserID,
		Name:         p.Name,
		Bio:          p.Bio,
		FirstMessage: p.FirstMessage,
		Situation:    p.Situation,
		BackStory:    p.BackStory,
		Personality:  p.Personality,
		ChattingWay:  p.ChattingWay,
		TypeOfBot:    p.TypeOfBot,
		Privacy:      p.Privacy,
	}
	if bot.Avatar != "" {
		avatar := bot.Avatar
		fb.Avatar = &avatar
	}
	if !bot.CreatedAt.IsZero() {
		created := bot.CreatedAt
		fb.CreatedAt = &created
	}
	if !bot.UpdatedAt.IsZero() {
		updated := bot.UpdatedAt
		fb.UpdatedAt = &updated
	}
	return fb
}

func fileToBot(fb fileBot) *domain.Bot {
	bot := &domain.Bot{
		BotID:  fb.BotID,
		UserID: fb.UserID,
		Profile: domain.BotProfile{
			Name:         fb.Name,
			Bio:          fb.Bio,
			FirstMessage: fb.FirstMessage,
			Situation:    fb.Situation,
			BackStory:    fb.BackStory,
			Personality:  fb.Personality,
			ChattingWay:  fb.ChattingWay,
			TypeOfBot:    fb.TypeOfBot,
			Privacy:      fb.Privacy,
		},
	}
	if fb.Avatar != nil {
		bot.Avatar = *fb.Avatar
	}
	if fb.CreatedAt != nil {
		bot.CreatedAt = *fb.CreatedAt
	}
	if fb.UpdatedAt != nil {
		bot.UpdatedAt = *fb.UpdatedAt
	}
	return bot
}

var _ domain.BotRepository = (*BotFileRepositoryImpl)(nil)
