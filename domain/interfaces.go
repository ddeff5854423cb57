package domain

import (
	"context"
	"io"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetVerified(ctx context.Context, email string) error
	SetResetOTP(ctx context.Context, userID, otp string, createdAt time.Time) error
	IncrementResetAttempts(ctx context.Context, userID string) (int, error)
	ClearResetOTP(ctx context.Context, userID string) error
}

// PendingSignupStore holds signups awaiting OTP confirmation, keyed by email
type PendingSignupStore interface {
	// Create stores p unless a record for the email exists (ErrSignupPending)
	Create(ctx context.Context, p *PendingSignup) error
	Get(ctx context.Context, email string) (*PendingSignup, error)
	// Take atomically reads and removes the record
	Take(ctx context.Context, email string) (*PendingSignup, error)
	Delete(ctx context.Context, email string) error
	IncrementAttempts(ctx context.Context, email string) (int64, error)
}

// BotRepository defines bot catalog operations
type BotRepository interface {
	Create(ctx context.Context, bot *Bot) error
	FindByID(ctx context.Context, botID string) (*Bot, error)
	// Update replaces profile and avatar of a bot owned by bot.UserID
	Update(ctx context.Context, bot *Bot) error
	ListPublic(ctx context.Context) ([]*Bot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Bot, error)
}

// AvatarStore persists uploaded avatar images
type AvatarStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// ChatRepository defines chat log operations
type ChatRepository interface {
	Append(ctx context.Context, msg *ChatMessage) error
	// History returns the conversation ordered by timestamp ascending
	History(ctx context.Context, chatID string) ([]*ChatMessage, error)
	// Recent returns at most limit latest messages, oldest first
	Recent(ctx context.Context, chatID string, limit int) ([]*ChatMessage, error)
	FindByMessageID(ctx context.Context, chatID, messageID string) (*ChatMessage, error)
	DeleteConversation(ctx context.Context, chatID string) (int64, error)
}

// ChatModel produces a bot reply for a conversation turn
type ChatModel interface {
	Reply(ctx context.Context, bot *Bot, history []*ChatMessage, message string) (string, error)
}

// AuthService defines account lifecycle business logic
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResult, error)
	VerifyEmail(ctx context.Context, email, otp string) (*User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	// VerifyPasswordReset checks otp and, when newPassword is non-empty,
	// replaces the password. It reports whether the password changed.
	VerifyPasswordReset(ctx context.Context, email, otp, newPassword string) (bool, error)
}

// BotService defines bot catalog business logic
type BotService interface {
	Create(ctx context.Context, ownerID string, profile BotProfile, avatar *AvatarUpload) (*Bot, error)
	Update(ctx context.Context, botID, ownerID string, profile BotProfile, avatar *AvatarUpload) (*Bot, error)
	ListPublic(ctx context.Context) ([]*Bot, error)
	ListMine(ctx context.Context, ownerID string) ([]*Bot, error)
	Get(ctx context.Context, botID string) (*Bot, error)
	OpenAvatar(ctx context.Context, name string) (io.ReadCloser, error)
}

// ChatService defines chat log business logic
type ChatService interface {
	Ask(ctx context.Context, req AskRequest) (*ChatMessage, error)
	History(ctx context.Context, userID, botID string) ([]*ChatMessage, error)
	Restart(ctx context.Context, userID, botID string) (int64, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	AccessTTL() time.Duration
}

// OTPService issues and checks one-time codes
type OTPService interface {
	Generate() (string, error)
	// Matches compares codes in constant time
	Matches(expected, given string) bool
}

// NotificationService defines notification operations
type NotificationService interface {
	SendEmail(to, subject, body string) error
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
