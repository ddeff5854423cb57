package mocks

import "github.com/you/companionsvc/domain"

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	GenerateFunc func() (string, error)
	MatchesFunc  func(expected, given string) bool
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

// Generate returns a new code
func (m *MockOTPService) Generate() (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	// Default behavior: fixed code for testing
	return "123456", nil
}

// Matches compares two codes
func (m *MockOTPService) Matches(expected, given string) bool {
	if m.MatchesFunc != nil {
		return m.MatchesFunc(expected, given)
	}
	return expected != "" && expected == given
}

// Compile-time interface compliance verification
var _ domain.OTPService = (*MockOTPService)(nil)
