package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/webauthn"
)

// PasskeyUser implements webauthn.User for an account.
type PasskeyUser struct {
	user        *User
	credentials []webauthn.Credential
}

// NewPasskeyUser creates a PasskeyUser for the given account.
func NewPasskeyUser(user *User, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{user: user, credentials: credentials}
}

// WebAuthnID returns the account ID, which is also the user handle that
// discoverable logins report back.
func (u *PasskeyUser) WebAuthnID() []byte {
	return []byte(u.user.ID)
}

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.user.Email }

// WebAuthnDisplayName returns the email.
func (u *PasskeyUser) WebAuthnDisplayName() string { return u.user.Email }

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// User returns the account.
func (u *PasskeyUser) User() *User { return u.user }

// PasskeyStore manages passkey credentials.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string
	UserID     string
	Name       string
	Credential webauthn.Credential
}

// Save stores a new passkey credential.
func (s *PasskeyStore) Save(ctx context.Context, userID, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, user_id, name, credential_json) VALUES ($1, $2, $3, $4)",
		id, userID, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	return nil
}

// ListByUser returns all credentials of a user.
func (s *PasskeyStore) ListByUser(ctx context.Context, userID string) (result []StoredCredential, err error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, credential_json FROM passkey_credentials WHERE user_id = $1 ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// WebAuthnCredentials returns just the webauthn.Credential slice for a user.
func (s *PasskeyStore) WebAuthnCredentials(ctx context.Context, userID string) ([]webauthn.Credential, error) {
	stored, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}

	return creds, nil
}

// Delete removes one of a user's credentials.
func (s *PasskeyStore) Delete(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("credential not found")
	}

	return nil
}
