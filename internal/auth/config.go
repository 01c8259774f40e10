// Package auth provides email/password accounts, sessions and passkeys
// for the account server.
package auth

import (
	"os"
	"strconv"

	"github.com/evcraddock/been/internal/email"
)

// Config holds authentication configuration.
type Config struct {
	DatabaseURL string
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	DevMode     bool
	AutoConfirm bool
	BaseURL     string // e.g. http://localhost:8080
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("BEEN_DATABASE_URL"),
		SMTPHost:    os.Getenv("BEEN_SMTP_HOST"),
		SMTPPort:    envOrDefault("BEEN_SMTP_PORT", "587"),
		SMTPUser:    os.Getenv("BEEN_SMTP_USER"),
		SMTPPass:    os.Getenv("BEEN_SMTP_PASS"),
		SMTPFrom:    os.Getenv("BEEN_SMTP_FROM"),
		DevMode:     envBool("BEEN_DEV_MODE"),
		AutoConfirm: envBool("BEEN_AUTO_CONFIRM"),
		BaseURL:     envOrDefault("BEEN_BASE_URL", "http://localhost:8080"),
	}
}

// SMTP returns the SMTP settings for the email package.
func (c Config) SMTP() email.SMTPConfig {
	return email.SMTPConfig{
		Host: c.SMTPHost,
		Port: c.SMTPPort,
		User: c.SMTPUser,
		Pass: c.SMTPPass,
		From: c.SMTPFrom,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
