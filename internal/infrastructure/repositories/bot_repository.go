package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/companionsvc/domain"
	"gorm.io/gorm"
)

// BotRepositoryImpl implements domain.BotRepository using GORM
type BotRepositoryImpl struct {
	db *gorm.DB
}

// DBBot is the database model of a bot profile
type DBBot struct {
	ID           uint   `gorm:"primaryKey"`
	BotID        string `gorm:"uniqueIndex;size:64;not null"`
	UserID       string `gorm:"index;size:64;not null"`
	Name         string `gorm:"size:255;not null"`
	Bio          string `gorm:"type:text"`
	FirstMessage string `gorm:"type:text"`
	Situation    string `gorm:"type:text"`
	BackStory    string `gorm:"type:text"`
	Personality  string `gorm:"type:text"`
	ChattingWay  string `gorm:"type:text"`
	TypeOfBot    string `gorm:"size:255"`
	Privacy      string `gorm:"index;size:32"`
	Avatar       string `gorm:"size:512"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBBot) TableName() string {
	return "bots"
}

// NewBotRepository creates a new bot repository
func NewBotRepository(db *gorm.DB) domain.BotRepository {
	return &BotRepositoryImpl{db: db}
}

// Create implements domain.BotRepository
func (r *BotRepositoryImpl) Create(ctx context.Context, bot *domain.Bot) error {
	dbBot := botToDB(bot)
	if err := r.db.WithContext(ctx).Create(dbBot).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("bot %s already exists: %w", bot.BotID, err)
		}
		return err
	}
	bot.CreatedAt = dbBot.CreatedAt
	bot.UpdatedAt = dbBot.UpdatedAt
	return nil
}

// FindByID implements domain.BotRepository
func (r *BotRepositoryImpl) FindByID(ctx context.Context, botID string) (*domain.Bot, error) {
	var dbBot DBBot
	err := r.db.WithContext(ctx).Where("bot_id = ?", botID).First(&dbBot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBotNotFound
		}
		return nil, err
	}
	return botToDomain(&dbBot), nil
}

// Update implements domain.BotRepository. The write is conditioned on the
// owner so a non-owner can never modify the row.
func (r *BotRepositoryImpl) Update(ctx context.Context, bot *domain.Bot) error {
	p := bot.Profile
	res := r.db.WithContext(ctx).Model(&DBBot{}).
		Where("bot_id = ? AND user_id = ?", bot.BotID, bot.UserID).
		Updates(map[string]interface{}{
			"name":          p.Name,
			"bio":           p.Bio,
			"first_message": p.FirstMessage,
			"situation":     p.Situation,
			"back_story":    p.BackStory,
			"personality":   p.Personality,
			"chatting_way":  p.ChattingWay,
			"type_of_bot":   p.TypeOfBot,
			"privacy":       p.Privacy,
			"avatar":        bot.Avatar,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, bot.BotID); err != nil {
		return err
	}
	return domain.ErrNotBotOwner
}

// ListPublic implements domain.BotRepository
func (r *BotRepositoryImpl) ListPublic(ctx context.Context) ([]*domain.Bot, error) {
	return r.list(ctx, "privacy = ?", domain.PrivacyPublic)
}

// ListByOwner implements domain.BotRepository
func (r *BotRepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Bot, error) {
	return r.list(ctx, "user_id = ?", ownerID)
}

func (r *BotRepositoryImpl) list(ctx context.Context, query string, arg string) ([]*domain.Bot, error) {
	var rows []DBBot
	if err := r.db.WithContext(ctx).Where(query, arg).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	bots := make([]*domain.Bot, 0, len(rows))
	for i := range rows {
		bots = append(bots, botToDomain(&rows[i]))
	}
	return bots, nil
}

func botToDB(bot *domain.Bot) *DBBot {
	p := bot.Profile
	return &DBBot{
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
		Avatar:       bot.Avatar,
	}
}

func botToDomain(dbBot *DBBot) *domain.Bot {
	return &domain.Bot{
		BotID:  dbBot.BotID,
		UserID: dbBot.UserID,
		Profile: domain.BotProfile{
			Name:         dbBot.Name,
			Bio:          dbBot.Bio,
			FirstMessage: dbBot.FirstMessage,
			Situation:    dbBot.Situation,
			BackStory:    dbBot.BackStory,
			Personality:  dbBot.Personality,
			ChattingWay:  dbBot.ChattingWay,
			TypeOfBot:    dbBot.TypeOfBot,
			Privacy:      dbBot.Privacy,
		},
		Avatar:    dbBot.Avatar,
		CreatedAt: dbBot.CreatedAt,
		UpdatedAt: dbBot.UpdatedAt,
	}
}
