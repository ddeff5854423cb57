package domain

import "errors"

// ErrorKind classifies a failure for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordReused     = errors.New("new password cannot be the same as the current password")
)

// Signup and OTP errors
var (
	ErrSignupPending         = errors.New("verification already sent")
	ErrPendingSignupNotFound = errors.New("no pending signup found")
	ErrOTPExpired            = errors.New("otp has expired")
	ErrOTPInvalid            = errors.New("invalid otp code")
	ErrOTPInvalidOrExpired   = errors.New("invalid or expired otp")
	ErrOTPMaxAttempts        = errors.New("maximum otp attempts exceeded")
	ErrEmailDelivery         = errors.New("email delivery failed")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Bot errors
var (
	ErrBotNotFound       = errors.New("bot not found")
	ErrNotBotOwner       = errors.New("not the owner of this bot")
	ErrInvalidBotProfile = errors.New("invalid bot profile")
	ErrInvalidAvatar     = errors.New("invalid avatar upload")
	ErrAvatarNotFound    = errors.New("avatar not found")
)

// Chat errors
var (
	ErrInvalidChatRequest = errors.New("invalid chat request")
	ErrMessageNotFound    = errors.New("chat message not found")
	ErrChatModel          = errors.New("chat model failed")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrPasswordMismatch, KindBadRequest},
	{ErrPasswordTooShort, KindBadRequest},
	{ErrPasswordReused, KindBadRequest},
	{ErrOTPExpired, KindBadRequest},
	{ErrOTPInvalid, KindBadRequest},
	{ErrOTPInvalidOrExpired, KindBadRequest},
	{ErrInvalidBotProfile, KindBadRequest},
	{ErrInvalidAvatar, KindBadRequest},
	{ErrInvalidChatRequest, KindBadRequest},
	{ErrInvalidCredentials, KindUnauthorized},
	{ErrTokenInvalid, KindUnauthorized},
	{ErrTokenExpired, KindUnauthorized},
	{ErrTokenMalformed, KindUnauthorized},
	{ErrUnauthorized, KindUnauthorized},
	{ErrEmailNotVerified, KindForbidden},
	{ErrNotBotOwner, KindForbidden},
	{ErrForbidden, KindForbidden},
	{ErrUserNotFound, KindNotFound},
	{ErrPendingSignupNotFound, KindNotFound},
	{ErrBotNotFound, KindNotFound},
	{ErrAvatarNotFound, KindNotFound},
	{ErrMessageNotFound, KindNotFound},
	{ErrUserAlreadyExists, KindConflict},
	{ErrSignupPending, KindConflict},
	{ErrOTPMaxAttempts, KindTooManyRequests},
	{ErrEmailDelivery, KindInternal},
	{ErrChatModel, KindInternal},
}

// KindOf returns the kind of the first known sentinel wrapped by err.
// Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}
