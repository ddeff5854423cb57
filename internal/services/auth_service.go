package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

const minPasswordLength = 6

// AuthConfig carries the account lifecycle policy
type AuthConfig struct {
	OTP                      OTPConfig
	RequireEmailVerification bool
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	pendingRepo domain.PendingSignupStore
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	otpSvc      domain.OTPService
	notifier    domain.NotificationService
	audit       domain.AuditLogger
	logger      *zap.Logger
	cfg         AuthConfig

	now   func() time.Time
	newID func() string
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	pendingRepo domain.PendingSignupStore,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	notifier domain.NotificationService,
	audit domain.AuditLogger,
	logger *zap.Logger,
	cfg AuthConfig,
) *AuthServiceImpl {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OTP.TTL <= 0 {
		cfg.OTP.TTL = 10 * time.Minute
	}
	if cfg.OTP.MaxAttempts <= 0 {
		cfg.OTP.MaxAttempts = 5
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		otpSvc:      otpSvc,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup implements domain.AuthService
func (s *AuthServiceImpl) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	email := NormalizeEmail(req.Email)

	if req.Password != req.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		s.logEvent(ctx, domain.NewAuditEvent(domain.SignupFailedEvent, "").WithEmail(email).WithError(domain.ErrUserAlreadyExists))
		return nil, domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if !s.cfg.RequireEmailVerification {
		return s.signupDirect(ctx, email, req)
	}
	return s.signupPending(ctx, email, req)
}

// signupDirect creates the account at once and sends a best-effort welcome email.
func (s *AuthServiceImpl) signupDirect(ctx context.Context, email string, req domain.SignupRequest) (*domain.SignupResult, error) {
	hash, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		UserID:       s.newID(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	sent := true
	subject, body := welcomeEmail(user.FullName, false)
	if err := s.notifier.SendEmail(email, subject, body); err != nil {
		sent = false
		s.logger.Warn("welcome email not delivered", zap.String("user_id", user.UserID), zap.Error(err))
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.SignupRequestedEvent, user.UserID).
		WithEmail(email).WithMetadata("verification", false))

	return &domain.SignupResult{Email: email, UserID: user.UserID, EmailSent: sent}, nil
}

func (s *AuthServiceImpl) signupPending(ctx context.Context, email string, req domain.SignupRequest) (*domain.SignupResult, error) {
	existing, err := s.pendingRepo.Get(ctx, email)
	switch {
	case err == nil:
		if !existing.Expired(s.now(), s.cfg.OTP.TTL) {
			s.logEvent(ctx, domain.NewAuditEvent(domain.SignupFailedEvent, "").WithEmail(email).WithError(domain.ErrSignupPending))
			return nil, domain.ErrSignupPending
		}
		if err := s.pendingRepo.Delete(ctx, email); err != nil {
			return nil, err
		}
	case !errors.Is(err, domain.ErrPendingSignupNotFound):
		return nil, err
	}

	hash, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := s.otpSvc.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	pending := &domain.PendingSignup{
		UserID:       s.newID(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: hash,
		OTP:          code,
		OTPCreatedAt: s.now(),
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil {
		return nil, err
	}

	if err := s.sendSignupEmails(pending); err != nil {
		if delErr := s.pendingRepo.Delete(ctx, email); delErr != nil {
			s.logger.Error("failed to roll back pending signup", zap.Error(delErr))
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.SignupFailedEvent, pending.UserID).WithEmail(email).WithError(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.SignupRequestedEvent, pending.UserID).
		WithEmail(email).WithMetadata("verification", true))

	return &domain.SignupResult{Email: email, UserID: pending.UserID, Pending: true, EmailSent: true}, nil
}

func (s *AuthServiceImpl) sendSignupEmails(p *domain.PendingSignup) error {
	subject, body := welcomeEmail(p.FullName, true)
	if err := s.notifier.SendEmail(p.Email, subject, body); err != nil {
		return err
	}
	subject, body = otpEmail(p.OTP, s.cfg.OTP.TTL)
	return s.notifier.SendEmail(p.Email, subject, body)
}

// VerifyEmail implements domain.AuthService
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, email, otp string) (*domain.User, error) {
	email = NormalizeEmail(email)

	pending, err := s.pendingRepo.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if pending.Expired(s.now(), s.cfg.OTP.TTL) {
		if err := s.pendingRepo.Delete(ctx, email); err != nil {
			return nil, err
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.EmailVerifyFailedEvent, pending.UserID).WithEmail(email).WithError(domain.ErrOTPExpired))
		return nil, domain.ErrOTPExpired
	}

	if !s.otpSvc.Matches(pending.OTP, strings.TrimSpace(otp)) {
		err := s.failPendingAttempt(ctx, email)
		s.logEvent(ctx, domain.NewAuditEvent(domain.EmailVerifyFailedEvent, pending.UserID).WithEmail(email).WithError(err))
		return nil, err
	}

	// Take consumes the record so a concurrent verifier sees not found.
	taken, err := s.pendingRepo.Take(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken.OTP != pending.OTP {
		// a fresh signup replaced the record between Get and Take
		s.restorePending(ctx, taken)
		return nil, domain.ErrOTPInvalid
	}

	user := taken.ToUser()
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrUserAlreadyExists) {
			s.restorePending(ctx, taken)
		}
		return nil, err
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.EmailVerifiedEvent, user.UserID).WithEmail(email))
	return user, nil
}

// restorePending puts a consumed record back so the code can be retried
func (s *AuthServiceImpl) restorePending(ctx context.Context, p *domain.PendingSignup) {
	if err := s.pendingRepo.Create(ctx, p); err != nil && !errors.Is(err, domain.ErrSignupPending) {
		s.logger.Warn("failed to restore pending signup", zap.String("user_id", p.UserID), zap.Error(err))
	}
}

func (s *AuthServiceImpl) failPendingAttempt(ctx context.Context, email string) error {
	n, err := s.pendingRepo.IncrementAttempts(ctx, email)
	if err != nil {
		return err
	}
	if int(n) >= s.cfg.OTP.MaxAttempts {
		if err := s.pendingRepo.Delete(ctx, email); err != nil {
			return err
		}
		return domain.ErrOTPMaxAttempts
	}
	return domain.ErrOTPInvalid
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, "").WithEmail(email).WithError(domain.ErrInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, user.UserID).WithEmail(email).WithError(domain.ErrInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	if s.cfg.RequireEmailVerification && !user.IsVerified {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, user.UserID).WithEmail(email).WithError(domain.ErrEmailNotVerified))
		return nil, domain.ErrEmailNotVerified
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.UserID).WithEmail(email))

	return &domain.AuthResult{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokenSvc.AccessTTL().Seconds()),
	}, nil
}

// RequestPasswordReset implements domain.AuthService. Unknown emails are
// not reported so the caller cannot probe for accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestEvent, "").
				WithEmail(email).WithMetadata("account", false))
			return nil
		}
		return err
	}

	code, err := s.otpSvc.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.userRepo.SetResetOTP(ctx, user.UserID, code, s.now()); err != nil {
		return err
	}

	subject, body := resetEmail(code, s.cfg.OTP.TTL)
	if err := s.notifier.SendEmail(email, subject, body); err != nil {
		if clearErr := s.userRepo.ClearResetOTP(ctx, user.UserID); clearErr != nil {
			s.logger.Error("failed to clear reset otp", zap.String("user_id", user.UserID), zap.Error(clearErr))
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestEvent, user.UserID).WithEmail(email).WithError(err))
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestEvent, user.UserID).
		WithEmail(email).WithMetadata("account", true))
	return nil
}

// VerifyPasswordReset implements domain.AuthService
func (s *AuthServiceImpl) VerifyPasswordReset(ctx context.Context, email, otp, newPassword string) (bool, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, domain.ErrOTPInvalidOrExpired
		}
		return false, err
	}
	if !user.HasResetOTP() {
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, user.UserID).WithEmail(email).WithError(domain.ErrOTPInvalidOrExpired))
		return false, domain.ErrOTPInvalidOrExpired
	}

	if s.now().Sub(*user.ResetOTPCreatedAt) > s.cfg.OTP.TTL {
		if err := s.userRepo.ClearResetOTP(ctx, user.UserID); err != nil {
			return false, err
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, user.UserID).WithEmail(email).WithError(domain.ErrOTPExpired))
		return false, domain.ErrOTPExpired
	}

	if !s.otpSvc.Matches(user.ResetOTP, strings.TrimSpace(otp)) {
		err := s.failResetAttempt(ctx, user.UserID)
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, user.UserID).WithEmail(email).WithError(err))
		return false, err
	}

	if newPassword == "" {
		return false, nil
	}

	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return false, domain.ErrPasswordTooShort
	}
	if s.passwordSvc.Verify(user.PasswordHash, newPassword) {
		return false, domain.ErrPasswordReused
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.UserID, hash); err != nil {
		return false, err
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, user.UserID).WithEmail(email))
	return true, nil
}

func (s *AuthServiceImpl) failResetAttempt(ctx context.Context, userID string) error {
	n, err := s.userRepo.IncrementResetAttempts(ctx, userID)
	if err != nil {
		return err
	}
	if n >= s.cfg.OTP.MaxAttempts {
		if err := s.userRepo.ClearResetOTP(ctx, userID); err != nil {
			return err
		}
		return domain.ErrOTPMaxAttempts
	}
	return domain.ErrOTPInvalid
}

func (s *AuthServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn("audit event dropped", zap.String("event", string(event.EventType)), zap.Error(err))
	}
}
