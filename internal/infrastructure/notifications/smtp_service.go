package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"github.com/you/companionsvc/internal/logging"
	"go.uber.org/zap"
)

const smtpTimeout = 15 * time.Second

// SMTPServiceImpl implements domain.NotificationService over SMTP
type SMTPServiceImpl struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
	deliver  func(*mail.Msg) error
}

// NewSMTPService creates an email sender. With an empty host deliveries are
// only logged.
func NewSMTPService(host string, port int, username, password, from string, logger *zap.Logger) *SMTPServiceImpl {
	s := &SMTPServiceImpl{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
	s.deliver = s.dialAndSend
	return s
}

// SendEmail implements domain.NotificationService
func (s *SMTPServiceImpl) SendEmail(to, subject, body string) error {
	if s.host == "" {
		s.logger.Info("mock email delivery",
			zap.String("to", logging.MaskEmail(to)),
			zap.String("subject", subject))
		return nil
	}

	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}
	if err := s.deliver(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPServiceImpl) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(sanitizeHeader(subject))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTPServiceImpl) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTimeout(smtpTimeout),
	}
	// 465 is implicit TLS, everything else negotiates STARTTLS
	if s.port == 465 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	// an explicit port wins over the policy defaults
	opts = append(opts, mail.WithPort(s.port))
	return mail.NewClient(s.host, opts...)
}

func (s *SMTPServiceImpl) dialAndSend(msg *mail.Msg) error {
	client, err := s.newClient()
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
