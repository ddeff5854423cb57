package mocks

import (
	"strings"
	"sync/atomic"

	"github.com/you/companionsvc/domain"
)

// hashPrefix marks passwords "hashed" by the mock
const hashPrefix = "hashed_"

// MockPasswordService implements domain.PasswordService with a reversible
// fake hash so tests can seed stored credentials by hand.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	hashCalls atomic.Int32
}

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash implements domain.PasswordService
func (m *MockPasswordService) Hash(password string) (string, error) {
	m.hashCalls.Add(1)
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return hashPrefix + password, nil
}

// Verify implements domain.PasswordService
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	plain, ok := strings.CutPrefix(hashedPassword, hashPrefix)
	return ok && plain == password
}

// HashCalls reports how many times Hash ran
func (m *MockPasswordService) HashCalls() int {
	return int(m.hashCalls.Load())
}

var _ domain.PasswordService = (*MockPasswordService)(nil)
