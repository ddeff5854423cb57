package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/config"
	httpx "github.com/you/companionsvc/internal/http"
	"github.com/you/companionsvc/internal/http/handlers"
	"github.com/you/companionsvc/internal/http/middleware"
	"github.com/you/companionsvc/internal/infrastructure/audit"
	"github.com/you/companionsvc/internal/infrastructure/auth"
	"github.com/you/companionsvc/internal/infrastructure/database"
	"github.com/you/companionsvc/internal/infrastructure/llm"
	"github.com/you/companionsvc/internal/infrastructure/metrics"
	"github.com/you/companionsvc/internal/infrastructure/notifications"
	"github.com/you/companionsvc/internal/infrastructure/repositories"
	"github.com/you/companionsvc/internal/infrastructure/storage"
	"github.com/you/companionsvc/internal/services"
)

// Infrastructure carries already opened backends. Nil fields are built
// from the config.
type Infrastructure struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Mongo     *database.MongoClient
	Avatars   domain.AvatarStore
	ChatModel domain.ChatModel
	Notifier  domain.NotificationService
}

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Mongo       *database.MongoClient
	Metrics     *metrics.Metrics

	// Repositories
	UserRepo    domain.UserRepository
	PendingRepo domain.PendingSignupStore
	BotRepo     domain.BotRepository
	ChatRepo    domain.ChatRepository
	Avatars     domain.AvatarStore

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	OTPSvc          domain.OTPService
	ChatModel       domain.ChatModel
	AuditLogger     domain.AuditLogger
	AuthSvc         domain.AuthService
	BotSvc          domain.BotService
	ChatSvc         domain.ChatService

	closers []func() error
}

// NewContainer opens every configured backend and wires the services
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openBackends(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.assemble(ctx, Infrastructure{DB: c.DB, Redis: c.RedisClient, Mongo: c.Mongo}); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Assemble wires the services over backends opened by the caller. The
// caller keeps ownership of the infrastructure it passes in.
func Assemble(ctx context.Context, cfg *config.Config, logger *zap.Logger, infra Infrastructure) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, DB: infra.DB, RedisClient: infra.Redis, Mongo: infra.Mongo}
	if err := c.assemble(ctx, infra); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) openBackends(ctx context.Context) error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, func() error { return database.Close(db) })

	rdb := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	c.closers = append(c.closers, rdb.Close)
	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	c.RedisClient = rdb.Client

	if c.Config.ChatBackend == config.BackendMongo {
		mc, err := database.OpenMongo(ctx, c.Config.MongoURI, c.Config.MongoDatabase)
		if err != nil {
			return err
		}
		c.Mongo = mc
		c.closers = append(c.closers, func() error { return mc.Close(context.Background()) })
	}
	return nil
}

func (c *Container) assemble(ctx context.Context, infra Infrastructure) error {
	cfg := c.Config

	if err := database.AutoMigrate(c.DB); err != nil {
		return err
	}

	if cfg.MetricsEnabled {
		c.Metrics = metrics.New()
	}
	if c.Metrics != nil {
		c.AuditLogger = audit.NewZapAuditLogger(c.Logger, c.Metrics)
	} else {
		c.AuditLogger = audit.NewZapAuditLogger(c.Logger, nil)
	}

	if err := c.initRepositories(ctx, infra); err != nil {
		return err
	}
	if err := c.initServices(ctx, infra); err != nil {
		return err
	}
	return nil
}

func (c *Container) initRepositories(ctx context.Context, infra Infrastructure) error {
	cfg := c.Config

	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.PendingRepo = repositories.NewPendingSignupRepository(c.RedisClient, cfg.OTP_TTL+cfg.OTP_Grace)

	switch cfg.BotsBackend {
	case config.BackendFile:
		repo, err := repositories.NewBotFileRepository(cfg.BotsFile, c.Logger)
		if err != nil {
			return fmt.Errorf("open bots file: %w", err)
		}
		c.BotRepo = repo
	default:
		c.BotRepo = repositories.NewBotRepository(c.DB)
	}

	switch cfg.ChatBackend {
	case config.BackendMongo:
		if c.Mongo == nil {
			return errors.New("chat backend mongo requires a mongo connection")
		}
		repo := repositories.NewChatMongoRepository(c.Mongo.Database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("create chat indexes: %w", err)
		}
		c.ChatRepo = repo
	default:
		c.ChatRepo = repositories.NewChatRepository(c.DB)
	}

	c.Avatars = infra.Avatars
	if c.Avatars == nil {
		switch cfg.AvatarBackend {
		case config.BackendMinio:
			store, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
			if err != nil {
				return fmt.Errorf("open avatar bucket: %w", err)
			}
			c.Avatars = store
		default:
			store, err := storage.NewDiskStore(cfg.AvatarDir)
			if err != nil {
				return fmt.Errorf("open avatar dir: %w", err)
			}
			c.Avatars = store
		}
	}
	return nil
}

func (c *Container) initServices(ctx context.Context, infra Infrastructure) error {
	cfg := c.Config

	c.PasswordSvc = auth.NewPasswordService(0)
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL)
	c.OTPSvc = services.NewOTPService(cfg.OTP_Length)

	c.NotificationSvc = infra.Notifier
	if c.NotificationSvc == nil {
		c.NotificationSvc = notifications.NewSMTPService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, c.Logger)
	}

	model := infra.ChatModel
	if model == nil {
		var err error
		if model, err = c.newChatModel(ctx); err != nil {
			return err
		}
	}
	if c.Metrics != nil {
		model = c.Metrics.InstrumentChatModel(cfg.LLMProvider, model)
	}
	c.ChatModel = model

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.PendingRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.OTPSvc,
		c.NotificationSvc,
		c.AuditLogger,
		c.Logger,
		services.AuthConfig{
			OTP: services.OTPConfig{
				Length:      cfg.OTP_Length,
				TTL:         cfg.OTP_TTL,
				MaxAttempts: cfg.OTP_MaxAttempts,
			},
			RequireEmailVerification: cfg.RequireEmailVerification,
		},
	)
	c.BotSvc = services.NewBotService(c.BotRepo, c.Avatars, c.AuditLogger, c.Logger, cfg.MaxAvatarBytes)
	c.ChatSvc = services.NewChatService(c.ChatRepo, c.BotRepo, c.ChatModel, c.AuditLogger, c.Logger, cfg.HistoryWindow)
	return nil
}

func (c *Container) newChatModel(ctx context.Context) (domain.ChatModel, error) {
	cfg := c.Config
	opts := llm.Options{
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		opts.Model = cfg.GeminiModel
		model, err := llm.NewGeminiChatModel(ctx, cfg.GeminiKey, opts, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		c.closers = append(c.closers, model.Close)
		return model, nil
	default:
		opts.Model = cfg.OpenAIModel
		return llm.NewOpenAIChatModel(cfg.OpenAIKey, cfg.OpenAIBaseURL, opts, c.Logger), nil
	}
}

// Router builds the HTTP handler over the container's services
func (c *Container) Router() *gin.Engine {
	var authMW *middleware.AuthMW
	if c.Config.RequireToken {
		authMW = middleware.NewAuthMW(c.TokenSvc, c.Config.OwnershipRules, c.Logger)
	}

	checks := map[string]handlers.Pinger{"postgres": database.SQLPinger{DB: c.DB}}
	if c.RedisClient != nil {
		checks["redis"] = &database.RedisClient{Client: c.RedisClient}
	}
	if c.Mongo != nil {
		checks["mongo"] = c.Mongo
	}

	return httpx.BuildRouter(c.Logger, httpx.Handlers{
		Auth:   handlers.NewAuthHandlers(c.AuthSvc, c.Logger),
		Bots:   handlers.NewBotHandlers(c.BotSvc, c.Logger, c.Config.MaxAvatarBytes),
		Chat:   handlers.NewChatHandlers(c.ChatSvc, c.Logger),
		Health: handlers.NewHealthHandlers(checks),
	}, httpx.RouterOptions{
		AuthMW:             authMW,
		Metrics:            c.Metrics,
		MaxMultipartMemory: c.Config.MaxAvatarBytes + 1<<20,
	})
}

// Close releases everything the container opened, newest first
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
