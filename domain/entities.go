package domain

import (
	"path"
	"strings"
	"time"
)

// Bot privacy values
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// User represents a registered account
type User struct {
	ID                uint
	UserID            string
	FullName          string
	Email             string
	PasswordHash      string `gorm:"column:password"`
	IsVerified        bool
	ResetOTP          string
	ResetOTPCreatedAt *time.Time
	ResetOTPAttempts  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasResetOTP reports whether a password reset code is outstanding
func (u *User) HasResetOTP() bool {
	return u.ResetOTP != "" && u.ResetOTPCreatedAt != nil
}

// PendingSignup is a signup accepted but not yet confirmed by OTP
type PendingSignup struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	OTP          string    `json:"otp"`
	OTPCreatedAt time.Time `json:"otp_created_at"`
}

// Expired reports whether the pending OTP is older than ttl at now
func (p *PendingSignup) Expired(now time.Time, ttl time.Duration) bool {
	return p.OTPCreatedAt.IsZero() || now.Sub(p.OTPCreatedAt) > ttl
}

// ToUser promotes the pending record into a verified account
func (p *PendingSignup) ToUser() *User {
	return &User{
		UserID:       p.UserID,
		FullName:     p.FullName,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		IsVerified:   true,
	}
}

// SignupRequest carries the signup form
type SignupRequest struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// SignupResult describes the outcome of a signup
type SignupResult struct {
	Email     string
	UserID    string
	Pending   bool
	EmailSent bool
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User        *User
	AccessToken string
	ExpiresIn   int64
}

// BotProfile holds the user-editable fields of a bot
type BotProfile struct {
	Name         string
	Bio          string
	FirstMessage string
	Situation    string
	BackStory    string
	Personality  string
	ChattingWay  string
	TypeOfBot    string
	Privacy      string
}

// Bot is a user-authored companion profile
type Bot struct {
	BotID     string
	UserID    string
	Profile   BotProfile
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPublic reports whether the bot is listed publicly
func (b *Bot) IsPublic() bool {
	return b.Profile.Privacy == PrivacyPublic
}

// AvatarUpload is an avatar image received with a bot form
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AvatarObjectName names the stored avatar for a bot
func AvatarObjectName(botID, filename string) string {
	return botID + "_" + SafeFilename(filename)
}

// SafeFilename strips any directory components from an uploaded file name
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "avatar"
	}
	return name
}

// NormalizeAvatar reduces stored avatar references such as
// "uploads/x.png" or "avatars/x.png" to the bare file name.
func NormalizeAvatar(avatar string) string {
	if strings.TrimSpace(avatar) == "" {
		return ""
	}
	avatar = strings.ReplaceAll(avatar, "\\", "/")
	return path.Base(avatar)
}

// ChatID builds the conversation key for a (user, bot) pair
func ChatID(userID, botID string) string {
	return userID + "_" + botID
}

// ChatMessage is one message/response exchange of a conversation
type ChatMessage struct {
	ID              string
	ChatID          string
	UserID          string
	BotID           string
	Message         string
	Response        string
	MessageID       string
	IsSystemMessage bool
	Timestamp       time.Time
}

// AskRequest carries a chat turn
type AskRequest struct {
	UserID          string
	BotID           string
	Message         string
	IsSystemMessage bool
	Response        *string
	MessageID       string
}
