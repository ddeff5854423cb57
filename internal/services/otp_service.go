package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/you/companionsvc/domain"
)

type OTPConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
}

// OTPServiceImpl implements domain.OTPService with crypto/rand digits
type OTPServiceImpl struct {
	length int
}

// NewOTPService creates a numeric code generator
func NewOTPService(length int) domain.OTPService {
	if length <= 0 {
		length = 6
	}
	return &OTPServiceImpl{length: length}
}

// Generate implements domain.OTPService
func (s *OTPServiceImpl) Generate() (string, error) {
	digits := make([]byte, s.length)

	for i := 0; i < s.length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}

// Matches implements domain.OTPService
func (s *OTPServiceImpl) Matches(expected, given string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
