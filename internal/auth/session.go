package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	sessionExpiry = 30 * 24 * time.Hour // 30 days
	cookieName    = "been_session"
	tokenBytes    = 32 // 256-bit tokens
)

// ErrInvalidSession is returned for unknown, expired or missing sessions.
var ErrInvalidSession = errors.New("invalid session")

// Session is an issued session. Token is only set when the session is
// created; the store keeps a hash.
type Session struct {
	Token     string    `json:"access_token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore manages sessions. Only SHA-256 hashes of tokens are stored.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionStore creates a session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Create issues a new session for a user.
func (s *SessionStore) Create(ctx context.Context, userID string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	expiresAt := s.now().UTC().Add(sessionExpiry)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		hashToken(token), userID, expiresAt, s.now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &Session{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}

// Validate returns the user ID for a session token.
func (s *SessionStore) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	var userID string
	var expiresAt time.Time

	hash := hashToken(token)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token_hash = $1",
		hash,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidSession
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(expiresAt) {
		// Clean up expired session
		if _, delErr := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = $1", hash); delErr != nil {
			return "", fmt.Errorf("deleting expired session: %w", delErr)
		}
		return "", ErrInvalidSession
	}

	return userID, nil
}

// Destroy removes a session. Unknown tokens are ignored.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = $1", hashToken(token)); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < $1",
		s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

// TokenFromRequest reads the session token from a Bearer header or,
// failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie sets the session cookie for browser clients.
func SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
