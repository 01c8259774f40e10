package auth

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/evcraddock/been/internal/email"
)

// SendFunc delivers an email. It matches email.Send.
type SendFunc func(cfg email.SMTPConfig, to []string, subject, body string) error

// Mailer sends confirmation emails.
type Mailer struct {
	config Config
	send   SendFunc
}

// NewMailer creates a mailer with the given config.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, send: email.Send}
}

// ConfirmationLink builds the link that confirms an email address.
func (m *Mailer) ConfirmationLink(token string) string {
	return fmt.Sprintf("%s/auth/confirm?token=%s", m.config.BaseURL, url.QueryEscape(token))
}

// SendConfirmation emails a confirmation link, or logs it in dev mode.
// Returns the link.
func (m *Mailer) SendConfirmation(to, token string) (string, error) {
	link := m.ConfirmationLink(token)

	if m.config.DevMode {
		slog.Info("confirmation link", "email", to, "link", link)
		return link, nil
	}

	body := email.FormatConfirmation(link, ConfirmationExpiry)
	if err := m.send(m.config.SMTP(), []string{to}, email.ConfirmationSubject, body); err != nil {
		return "", fmt.Errorf("sending confirmation: %w", err)
	}

	return link, nil
}
