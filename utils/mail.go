package utils

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storefront/config"
)

// Mailer sends transactional mail to newly registered customers.
type Mailer interface {
	SendWelcome(ctx context.Context, toName, toEmail string) error
}

type SendgridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewMailer returns nil when no API key is configured so callers can skip
// mailing with a simple nil check.
func NewMailer(cfg config.SendgridConfig) *SendgridMailer {
	if cfg.APIKey == "" {
		return nil
	}
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (m *SendgridMailer) SendWelcome(ctx context.Context, toName, toEmail string) error {
	if toName == "" {
		toName = toEmail
	}
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	subject := "Welcome to " + m.fromName
	plainTextContent := fmt.Sprintf("Hi %s, your account is ready. Happy shopping!", toName)
	htmlContent := fmt.Sprintf("<p>Hi %s,</p><p>your account is ready. <strong>Happy shopping!</strong></p>", toName)

	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send welcome mail: sendgrid returned %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
