// Package mailer sends transactional email through a configured provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/pkg/config"
)

// Provider names accepted in EMAIL_PROVIDER.
const (
	ProviderSendGrid = "sendgrid"
	ProviderResend   = "resend"
)

// ErrDisabled is returned by the sender used when no provider is configured.
var ErrDisabled = errors.New("email provider not configured")

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a rendered email ready for delivery.
type Message struct {
	To          []Address
	ReplyTo     *Address
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Validate checks the fields every provider requires.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("message has no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to.Email) == "" {
			return errors.New("recipient address is empty")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("message subject is empty")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("message body is empty")
	}
	return nil
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// New selects a Sender from configuration. A missing provider or API key
// yields the disabled sender.
func New(cfg config.EmailConfig, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := Address{Name: cfg.FromName, Email: cfg.FromAddress}

	if cfg.Provider == "" || cfg.APIKey == "" {
		logger.Warn("email provider not configured, outgoing email will be dropped")
		return Disabled(logger), nil
	}

	switch cfg.Provider {
	case ProviderSendGrid:
		return NewSendGrid(cfg.APIKey, from), nil
	case ProviderResend:
		return NewResend(cfg.APIKey, from, cfg.ResendEndpoint), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

type disabledSender struct {
	logger *zap.Logger
}

// Disabled returns a Sender that logs and drops every message.
func Disabled(logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &disabledSender{logger: logger}
}

func (s *disabledSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email dropped, no provider configured",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)),
	)
	return ErrDisabled
}

func (s *disabledSender) Name() string { return "disabled" }
