// Package email provides account email formatting and SMTP sending.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// ConfirmationSubject is the subject of sign-up confirmation emails.
const ConfirmationSubject = "been: confirm your email"

// FormatConfirmation builds the plain-text body of a sign-up confirmation
// email.
func FormatConfirmation(link string, expiresIn time.Duration) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi,\n\nConfirm your email address to start syncing your travels:\n\n")
	fmt.Fprintf(&buf, "   %s\n\n", link)
	fmt.Fprintf(&buf, "This link expires in %s and can only be used once.\n", formatDuration(expiresIn))
	fmt.Fprintf(&buf, "If you did not sign up, you can ignore this email.\n")

	return buf.String()
}

// Send delivers a plain-text email. Port 465 uses implicit TLS; any other
// port goes through net/smtp, which upgrades with STARTTLS when offered.
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := buildMessage(cfg.From, to, subject, body, time.Now())
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if cfg.Port != "465" {
		if err := smtp.SendMail(addr, auth, cfg.From, to, msg); err != nil {
			return fmt.Errorf("sending email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}
	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	return deliver(c, auth, cfg.From, to, msg)
}

// buildMessage renders the headers and body of a UTF-8 plain-text email.
func buildMessage(from string, to []string, subject, body string, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

// deliver runs one mail transaction on an open client and closes it.
func deliver(c *smtp.Client, auth smtp.Auth, from string, to []string, msg []byte) (err error) {
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
