package config

import (
	"errors"
	"fmt"
	"strings"
)

var ruleSources = map[string]bool{
	"path":   true,
	"query":  true,
	"header": true,
	"body":   true,
	"form":   true,
}

// Validate checks backend selections and the values each backend needs.
func (c *Config) Validate() error {
	var errs []error

	if c.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("jwt.access_ttl must be positive"))
	}

	if c.OTP_TTL <= 0 {
		errs = append(errs, errors.New("otp.ttl must be positive"))
	}
	if c.OTP_Length < 4 || c.OTP_Length > 10 {
		errs = append(errs, fmt.Errorf("otp.length must be between 4 and 10, got %d", c.OTP_Length))
	}
	if c.OTP_MaxAttempts < 1 {
		errs = append(errs, errors.New("otp.max_attempts must be at least 1"))
	}
	if c.OTP_Grace < 0 {
		errs = append(errs, errors.New("otp.grace must not be negative"))
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.LogFormat))
	}

	switch c.BotsBackend {
	case BackendDatabase:
	case BackendFile:
		if c.BotsFile == "" {
			errs = append(errs, errors.New("bots.file is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown bots.backend %q", c.BotsBackend))
	}

	switch c.AvatarBackend {
	case BackendDisk:
		if c.AvatarDir == "" {
			errs = append(errs, errors.New("storage.dir is required for the disk backend"))
		}
	case BackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			errs = append(errs, errors.New("storage.minio endpoint, access_key, secret_key and bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.AvatarBackend))
	}
	if c.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("storage.max_avatar_bytes must be positive"))
	}

	switch c.ChatBackend {
	case BackendDatabase:
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo chat backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown chat.backend %q", c.ChatBackend))
	}
	if c.HistoryWindow < 0 {
		errs = append(errs, errors.New("chat.history_window must not be negative"))
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("llm.openai.api_key is required"))
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("llm.gemini.api_key is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLMProvider))
	}

	for i, rule := range c.OwnershipRules {
		if rule.Method == "" || rule.Path == "" || rule.ParamName == "" {
			errs = append(errs, fmt.Errorf("auth.ownership_rules[%d]: method, path and paramName are required", i))
		}
		if !ruleSources[strings.ToLower(rule.Source)] {
			errs = append(errs, fmt.Errorf("auth.ownership_rules[%d]: unsupported source %q", i, rule.Source))
		}
	}

	return errors.Join(errs...)
}
