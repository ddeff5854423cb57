package mocks

import (
	"strings"
	"time"

	"github.com/you/companionsvc/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	GenerateAccessTokenFunc func(userID string) (string, error)
	ValidateAccessTokenFunc func(token string) (*domain.TokenClaims, error)
	AccessTTLFunc           func() time.Duration
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// GenerateAccessToken generates an access token
func (m *MockTokenService) GenerateAccessToken(userID string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID)
	}
	// Default behavior: return a mock access token
	return "access_token_" + userID, nil
}

// ValidateAccessToken validates an access token and returns claims
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	// Default behavior: accept tokens produced by GenerateAccessToken
	userID, ok := strings.CutPrefix(token, "access_token_")
	if !ok || userID == "" {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.AccessTTL()).Unix(),
	}, nil
}

// AccessTTL returns the token lifetime
func (m *MockTokenService) AccessTTL() time.Duration {
	if m.AccessTTLFunc != nil {
		return m.AccessTTLFunc()
	}
	return time.Hour
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
