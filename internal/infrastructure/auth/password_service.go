package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/you/companionsvc/domain"
)

// PasswordServiceImpl hashes account passwords with bcrypt
type PasswordServiceImpl struct {
	cost int
}

// NewPasswordService creates a bcrypt password service. A cost of zero
// selects bcrypt.DefaultCost.
func NewPasswordService(cost int) domain.PasswordService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordServiceImpl{cost: cost}
}

// Hash implements domain.PasswordService. bcrypt only looks at the first
// 72 bytes, longer inputs are rejected rather than silently truncated.
func (p *PasswordServiceImpl) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

// Verify implements domain.PasswordService
func (p *PasswordServiceImpl) Verify(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
