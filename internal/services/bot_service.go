package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

// BotServiceImpl implements domain.BotService
type BotServiceImpl struct {
	bots           domain.BotRepository
	avatars        domain.AvatarStore
	audit          domain.AuditLogger
	logger         *zap.Logger
	maxAvatarBytes int64

	now   func() time.Time
	newID func() string
}

// NewBotService creates a new bot catalog service
func NewBotService(
	bots domain.BotRepository,
	avatars domain.AvatarStore,
	audit domain.AuditLogger,
	logger *zap.Logger,
	maxAvatarBytes int64,
) *BotServiceImpl {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = 5 << 20
	}
	return &BotServiceImpl{
		bots:           bots,
		avatars:        avatars,
		audit:          audit,
		logger:         logger,
		maxAvatarBytes: maxAvatarBytes,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

var _ domain.BotService = (*BotServiceImpl)(nil)

// Create implements domain.BotService
func (s *BotServiceImpl) Create(ctx context.Context, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error) {
	if err := validateProfile(ownerID, profile); err != nil {
		return nil, err
	}
	if err := s.checkAvatar(avatar); err != nil {
		return nil, err
	}

	now := s.now()
	bot := &domain.Bot{
		BotID:     s.newID(),
		UserID:    ownerID,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if avatar != nil {
		name, err := s.storeAvatar(ctx, bot.BotID, avatar)
		if err != nil {
			return nil, err
		}
		bot.Avatar = name
	}

	if err := s.bots.Create(ctx, bot); err != nil {
		if bot.Avatar != "" {
			s.removeAvatar(ctx, bot.Avatar)
		}
		return nil, err
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.BotCreatedEvent, ownerID).WithMetadata("bot_id", bot.BotID))
	return bot, nil
}

// Update implements domain.BotService. Ownership is checked before any
// avatar or record is written.
func (s *BotServiceImpl) Update(ctx context.Context, botID, ownerID string, profile domain.BotProfile, avatar *domain.AvatarUpload) (*domain.Bot, error) {
	if err := validateProfile(ownerID, profile); err != nil {
		return nil, err
	}

	current, err := s.bots.FindByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	if current.UserID != ownerID {
		s.logEvent(ctx, domain.NewAuditEvent(domain.BotUpdateDeniedEvent, ownerID).
			WithMetadata("bot_id", botID).WithError(domain.ErrNotBotOwner))
		return nil, domain.ErrNotBotOwner
	}
	if err := s.checkAvatar(avatar); err != nil {
		return nil, err
	}

	updated := *current
	updated.Profile = profile
	updated.UpdatedAt = s.now()
	oldAvatar := domain.NormalizeAvatar(current.Avatar)

	if avatar != nil {
		name, err := s.storeAvatar(ctx, botID, avatar)
		if err != nil {
			return nil, err
		}
		updated.Avatar = name
	}

	if err := s.bots.Update(ctx, &updated); err != nil {
		// a same-name upload already overwrote the old file in place
		if avatar != nil && updated.Avatar != oldAvatar {
			s.removeAvatar(ctx, updated.Avatar)
		}
		if errors.Is(err, domain.ErrNotBotOwner) {
			s.logEvent(ctx, domain.NewAuditEvent(domain.BotUpdateDeniedEvent, ownerID).
				WithMetadata("bot_id", botID).WithError(err))
		}
		return nil, err
	}

	if avatar != nil && oldAvatar != "" && oldAvatar != updated.Avatar {
		s.removeAvatar(ctx, oldAvatar)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.BotUpdatedEvent, ownerID).WithMetadata("bot_id", botID))
	updated.Avatar = domain.NormalizeAvatar(updated.Avatar)
	return &updated, nil
}

// ListPublic implements domain.BotService
func (s *BotServiceImpl) ListPublic(ctx context.Context) ([]*domain.Bot, error) {
	bots, err := s.bots.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeAvatars(bots), nil
}

// ListMine implements domain.BotService
func (s *BotServiceImpl) ListMine(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidBotProfile)
	}
	bots, err := s.bots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return normalizeAvatars(bots), nil
}

// Get implements domain.BotService
func (s *BotServiceImpl) Get(ctx context.Context, botID string) (*domain.Bot, error) {
	bot, err := s.bots.FindByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	bot.Avatar = domain.NormalizeAvatar(bot.Avatar)
	return bot, nil
}

// OpenAvatar implements domain.BotService
func (s *BotServiceImpl) OpenAvatar(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.avatars.Open(ctx, domain.NormalizeAvatar(name))
}

func validateProfile(ownerID string, profile domain.BotProfile) error {
	switch {
	case strings.TrimSpace(ownerID) == "":
		return fmt.Errorf("%w: user_id is required", domain.ErrInvalidBotProfile)
	case strings.TrimSpace(profile.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidBotProfile)
	case strings.TrimSpace(profile.Privacy) == "":
		return fmt.Errorf("%w: privacy is required", domain.ErrInvalidBotProfile)
	}
	return nil
}

func (s *BotServiceImpl) checkAvatar(avatar *domain.AvatarUpload) error {
	if avatar == nil {
		return nil
	}
	if len(avatar.Data) == 0 {
		return fmt.Errorf("%w: empty file", domain.ErrInvalidAvatar)
	}
	if int64(len(avatar.Data)) > s.maxAvatarBytes {
		return fmt.Errorf("%w: larger than %d bytes", domain.ErrInvalidAvatar, s.maxAvatarBytes)
	}
	detected := http.DetectContentType(avatar.Data)
	if !strings.HasPrefix(detected, "image/") {
		return fmt.Errorf("%w: %s is not an image", domain.ErrInvalidAvatar, detected)
	}
	avatar.ContentType = detected
	return nil
}

func (s *BotServiceImpl) storeAvatar(ctx context.Context, botID string, avatar *domain.AvatarUpload) (string, error) {
	name := domain.AvatarObjectName(botID, avatar.Filename)
	if err := s.avatars.Save(ctx, name, bytes.NewReader(avatar.Data), int64(len(avatar.Data)), avatar.ContentType); err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	return name, nil
}

func (s *BotServiceImpl) removeAvatar(ctx context.Context, name string) {
	if err := s.avatars.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to delete avatar", zap.String("avatar", name), zap.Error(err))
	}
}

func (s *BotServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn("audit event dropped", zap.String("event", string(event.EventType)), zap.Error(err))
	}
}

func normalizeAvatars(bots []*domain.Bot) []*domain.Bot {
	for _, b := range bots {
		b.Avatar = domain.NormalizeAvatar(b.Avatar)
	}
	return bots
}
