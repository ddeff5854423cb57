package mocks

import (
	"sync"

	"github.com/you/companionsvc/domain"
)

// SentEmail is one email captured by MockNotificationService
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendEmailFunc func(to, subject, body string) error

	mu   sync.Mutex
	Sent []SentEmail
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendEmail sends an email message
func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	if m.SendEmailFunc != nil {
		if err := m.SendEmailFunc(to, subject, body); err != nil {
			return err
		}
	}
	// Default behavior: record the email, nothing is delivered
	m.mu.Lock()
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	return nil
}

// SentTo returns the captured emails for one recipient
func (m *MockNotificationService) SentTo(to string) []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentEmail
	for _, e := range m.Sent {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
