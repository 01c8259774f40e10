package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ConfirmationExpiry is how long an email confirmation link is valid.
const ConfirmationExpiry = 24 * time.Hour

// ErrInvalidToken is returned for unknown, used or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenStore manages single-use email confirmation tokens.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

// Create generates a confirmation token for a user.
func (s *TokenStore) Create(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	expiresAt := s.now().UTC().Add(ConfirmationExpiry)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		token, userID, expiresAt, s.now().UTC(),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Consume validates a token, marks it used and returns its user ID.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	var userID string
	var used int
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, used, expires_at FROM auth_tokens WHERE token = $1",
		token,
	).Scan(&userID, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if used != 0 || s.now().After(expiresAt) {
		return "", ErrInvalidToken
	}

	// The used = 0 guard makes concurrent consumers race safely.
	result, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET used = 1 WHERE token = $1 AND used = 0",
		token,
	)
	if err != nil {
		return "", fmt.Errorf("marking token used: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return "", fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return "", ErrInvalidToken
	}

	return userID, nil
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE expires_at < $1",
		s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
