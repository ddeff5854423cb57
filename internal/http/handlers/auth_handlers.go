package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

// AuthHandlers handles account lifecycle HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	logger  *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, logger: logger}
}

// SignupRequest represents signup request
type SignupRequest struct {
	FullName        string `json:"full_name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// EmailRequest carries a single email address
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailRequest represents email verification request
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// ResetVerifyRequest represents password reset verification request
type ResetVerifyRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password"`
}

const resetRequestedMessage = "If an account exists with this email, a password reset OTP has been sent"

var (
	signupMessages = messages{
		domain.ErrPasswordMismatch:  "Passwords do not match",
		domain.ErrUserAlreadyExists: "User already exists",
		domain.ErrSignupPending:     "Verification already sent. Please check your email.",
		domain.ErrEmailDelivery:     "Failed to send verification email. Please try again.",
	}
	loginMessages = messages{
		domain.ErrInvalidCredentials: "Invalid credentials",
		domain.ErrEmailNotVerified:   "Email not verified",
	}
	verifyEmailMessages = messages{
		domain.ErrPendingSignupNotFound: "No pending signup found for this email",
		domain.ErrOTPExpired:            "OTP has expired. Please sign up again.",
		domain.ErrOTPInvalid:            "Invalid OTP",
		domain.ErrOTPMaxAttempts:        "Too many invalid attempts. Please sign up again.",
		domain.ErrUserAlreadyExists:     "User already exists",
	}
	resetRequestMessages = messages{
		domain.ErrEmailDelivery: "Failed to send password reset email",
	}
	resetVerifyMessages = messages{
		domain.ErrOTPInvalidOrExpired: "Invalid or expired OTP",
		domain.ErrOTPExpired:          "OTP has expired. Please request a new one.",
		domain.ErrOTPInvalid:          "Invalid OTP",
		domain.ErrOTPMaxAttempts:      "Too many invalid attempts. Please request a new OTP.",
		domain.ErrPasswordTooShort:    "Password must be at least 6 characters",
		domain.ErrPasswordReused:      "New password cannot be the same as your current password",
	}
)

// Signup handles account creation
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Signup(c.Request.Context(), domain.SignupRequest{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.logger, err, signupMessages)
		return
	}

	message := "Signup successful. Please check your email for the verification code."
	if !result.Pending {
		message = "Signup successful. You can now login."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"email_sent": result.EmailSent,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, loginMessages)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user_id":      result.User.UserID,
		"full_name":    result.User.FullName,
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   result.ExpiresIn,
	})
}

// VerifyEmail confirms a pending signup
func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.authSvc.VerifyEmail(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, h.logger, err, verifyEmailMessages)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully. Account created."})
}

// ForgotPasswordRequest issues a reset code. The response does not reveal
// whether the account exists.
func (h *AuthHandlers) ForgotPasswordRequest(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.authSvc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err, resetRequestMessages)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
}

// ForgotPasswordVerify checks a reset code and optionally sets a new password
func (h *AuthHandlers) ForgotPasswordVerify(c *gin.Context) {
	var req ResetVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	changed, err := h.authSvc.VerifyPasswordReset(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, err, resetVerifyMessages)
		return
	}

	if changed {
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successful. You can now login with your new password."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified. You can now set a new password."})
}
