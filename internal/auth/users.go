package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/been/internal/db"
)

const minPasswordLen = 6

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrNotConfirmed is returned when signing in before confirming the email.
	ErrNotConfirmed = errors.New("email not confirmed")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("user already registered")

	// ErrUserNotFound is returned by lookups for a missing user.
	ErrUserNotFound = errors.New("user not found")
)

// User is an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages accounts. Queries use $N placeholders so they run on
// both SQLite and PostgreSQL.
type UserStore struct {
	db         *sql.DB
	bcryptCost int
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, bcryptCost: bcrypt.DefaultCost}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSignUp checks an email and password before an account is made.
func ValidateSignUp(email, password string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password should be at least %d characters", minPasswordLen)
	}
	return nil
}

// Create registers a new account. Confirmed accounts can sign in at once.
func (s *UserStore) Create(ctx context.Context, email, password string, confirmed bool) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateSignUp(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		ID:        uuid.NewString(),
		Email:     email,
		Confirmed: confirmed,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, confirmed, created_at) VALUES ($1, $2, $3, $4, $5)",
		u.ID, u.Email, string(hash), boolInt(confirmed), u.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	return u, nil
}

// Authenticate checks an email and password.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var hash string
	u, err := s.scanOne(ctx,
		"SELECT id, email, confirmed, created_at, password_hash FROM users WHERE email = $1",
		NormalizeEmail(email), &hash,
	)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Confirmed {
		return nil, ErrNotConfirmed
	}
	return u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var hash string
	return s.scanOne(ctx,
		"SELECT id, email, confirmed, created_at, password_hash FROM users WHERE id = $1",
		id, &hash,
	)
}

// GetByEmail returns a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var hash string
	return s.scanOne(ctx,
		"SELECT id, email, confirmed, created_at, password_hash FROM users WHERE email = $1",
		NormalizeEmail(email), &hash,
	)
}

// Confirm marks a user's email as confirmed.
func (s *UserStore) Confirm(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET confirmed = 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("confirming user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user. Sessions, tokens, passkeys and the travel record
// go with it.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *UserStore) scanOne(ctx context.Context, query, arg string, hash *string) (*User, error) {
	var u User
	var confirmed int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &confirmed, &u.CreatedAt, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u.Confirmed = confirmed != 0
	return &u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
