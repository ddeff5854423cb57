package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OwnershipRule binds a route to the request field that must equal the
// token subject when token enforcement is on.
type OwnershipRule struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Source    string `yaml:"source"`
	ParamName string `yaml:"paramName"`
}

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	AccessTTL string `yaml:"access_ttl"`
}

type OTPConfig struct {
	TTL         string `yaml:"ttl"`
	Length      int    `yaml:"length"`
	MaxAttempts int    `yaml:"max_attempts"`
	Grace       string `yaml:"grace"`
}

type AuthConfig struct {
	RequireEmailVerification *bool           `yaml:"require_email_verification"`
	RequireToken             bool            `yaml:"require_token"`
	OwnershipRules           []OwnershipRule `yaml:"ownership_rules"`
}

type BotsConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type StorageConfig struct {
	Backend        string      `yaml:"backend"`
	Dir            string      `yaml:"dir"`
	MaxAvatarBytes int64       `yaml:"max_avatar_bytes"`
	Minio          MinioConfig `yaml:"minio"`
}

type ChatConfig struct {
	Backend       string `yaml:"backend"`
	HistoryWindow int    `yaml:"history_window"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	Provider    string       `yaml:"provider"`
	Timeout     string       `yaml:"timeout"`
	Temperature float32      `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	OpenAI      OpenAIConfig `yaml:"openai"`
	Gemini      GeminiConfig `yaml:"gemini"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Auth     AuthConfig     `yaml:"auth"`
	Bots     BotsConfig     `yaml:"bots"`
	Storage  StorageConfig  `yaml:"storage"`
	Chat     ChatConfig     `yaml:"chat"`
	Mongo    MongoConfig    `yaml:"mongo"`
	LLM      LLMConfig      `yaml:"llm"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Backend names
const (
	BackendDatabase = "database"
	BackendFile     = "file"
	BackendDisk     = "disk"
	BackendMinio    = "minio"
	BackendMongo    = "mongo"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	AccessTTL time.Duration

	OTP_TTL         time.Duration
	OTP_Length      int
	OTP_MaxAttempts int
	OTP_Grace       time.Duration

	RequireEmailVerification bool
	RequireToken             bool
	OwnershipRules           []OwnershipRule

	BotsBackend string
	BotsFile    string

	AvatarBackend  string
	AvatarDir      string
	MaxAvatarBytes int64
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	ChatBackend   string
	HistoryWindow int
	MongoURI      string
	MongoDatabase string

	LLMProvider    string
	LLMTimeout     time.Duration
	LLMTemperature float32
	LLMMaxTokens   int
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiKey      string
	GeminiModel    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MetricsEnabled bool
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the YAML file named by CONFIG_PATH (default config/config.yml)
// and applies environment overrides.
func Load() (*Config, error) {
	return LoadFile(env("CONFIG_PATH", "config/config.yml"))
}

// LoadFile is Load with an explicit path.
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg, err := fromFile(configFile)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(f *ConfigFile) (*Config, error) {
	accTTL, err := parseDuration(f.JWT.AccessTTL, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	otpTTL, err := parseDuration(f.OTP.TTL, 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	grace, err := parseDuration(f.OTP.Grace, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP grace: %w", err)
	}

	llmTimeout, err := parseDuration(f.LLM.Timeout, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM timeout: %w", err)
	}

	requireVerification := true
	if f.Auth.RequireEmailVerification != nil {
		requireVerification = *f.Auth.RequireEmailVerification
	}

	port := "8080"
	if f.App.Port != 0 {
		port = strconv.Itoa(f.App.Port)
	}

	return &Config{
		Port:      port,
		GinMode:   orDefault(f.App.GinMode, "release"),
		LogLevel:  orDefault(f.Log.Level, "info"),
		LogFormat: orDefault(f.Log.Format, "json"),

		DSN:           f.Database.DSN,
		RedisAddr:     orDefault(f.Redis.Addr, "localhost:6379"),
		RedisPassword: f.Redis.Password,
		RedisDB:       f.Redis.DB,

		JWTSecret: f.JWT.Secret,
		JWTIssuer: orDefault(f.JWT.Issuer, "companionsvc"),
		AccessTTL: accTTL,

		OTP_TTL:         otpTTL,
		OTP_Length:      intOrDefault(f.OTP.Length, 6),
		OTP_MaxAttempts: intOrDefault(f.OTP.MaxAttempts, 5),
		OTP_Grace:       grace,

		RequireEmailVerification: requireVerification,
		RequireToken:             f.Auth.RequireToken,
		OwnershipRules:           f.Auth.OwnershipRules,

		BotsBackend: orDefault(f.Bots.Backend, BackendDatabase),
		BotsFile:    orDefault(f.Bots.File, "data/bots.json"),

		AvatarBackend:  orDefault(f.Storage.Backend, BackendDisk),
		AvatarDir:      orDefault(f.Storage.Dir, "uploads"),
		MaxAvatarBytes: int64OrDefault(f.Storage.MaxAvatarBytes, 5<<20),
		MinioEndpoint:  f.Storage.Minio.Endpoint,
		MinioAccessKey: f.Storage.Minio.AccessKey,
		MinioSecretKey: f.Storage.Minio.SecretKey,
		MinioBucket:    orDefault(f.Storage.Minio.Bucket, "avatars"),
		MinioUseSSL:    f.Storage.Minio.UseSSL,

		ChatBackend:   orDefault(f.Chat.Backend, BackendDatabase),
		HistoryWindow: intOrDefault(f.Chat.HistoryWindow, 20),
		MongoURI:      f.Mongo.URI,
		MongoDatabase: orDefault(f.Mongo.Database, "companion"),

		LLMProvider:    orDefault(f.LLM.Provider, ProviderOpenAI),
		LLMTimeout:     llmTimeout,
		LLMTemperature: f.LLM.Temperature,
		LLMMaxTokens:   f.LLM.MaxTokens,
		OpenAIKey:      f.LLM.OpenAI.APIKey,
		OpenAIModel:    orDefault(f.LLM.OpenAI.Model, "gpt-4o-mini"),
		OpenAIBaseURL:  f.LLM.OpenAI.BaseURL,
		GeminiKey:      f.LLM.Gemini.APIKey,
		GeminiModel:    orDefault(f.LLM.Gemini.Model, "gemini-1.5-flash"),

		SMTPHost:     f.SMTP.Host,
		SMTPPort:     intOrDefault(f.SMTP.Port, 587),
		SMTPUsername: f.SMTP.Username,
		SMTPPassword: f.SMTP.Password,
		SMTPFrom:     f.SMTP.From,

		MetricsEnabled: f.Metrics.Enabled,
	}, nil
}

// applyEnv overrides deployment values and secrets from the environment
func applyEnv(cfg *Config) {
	cfg.Port = env("PORT", cfg.Port)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.DSN = env("DATABASE_DSN", cfg.DSN)
	cfg.RedisAddr = env("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = env("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.JWTSecret = env("JWT_SECRET", cfg.JWTSecret)
	cfg.MongoURI = env("MONGO_URI", cfg.MongoURI)
	cfg.OpenAIKey = env("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.GeminiKey = env("GEMINI_API_KEY", cfg.GeminiKey)
	cfg.SMTPPassword = env("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.MinioSecretKey = env("MINIO_SECRET_KEY", cfg.MinioSecretKey)
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intOrDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func int64OrDefault(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}
