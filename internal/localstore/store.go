// Package localstore persists the travel state on this device.
//
// The state lives in three slots of the local_state table, each holding the
// JSON form of one part of a travel.Snapshot.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/been/internal/travel"
)

// Slot keys.
const (
	KeyCountries = "been-countries"
	KeyCities    = "been-cities"
	KeyRecent    = "been-recent"
)

// Store reads and writes the travel state slots.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a local store on an opened database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Load reads the saved state. Missing slots are empty. A slot that does
// not parse is logged and treated as empty.
func (s *Store) Load(ctx context.Context) (travel.Snapshot, error) {
	snap := travel.EmptySnapshot()

	slots := []struct {
		key    string
		decode func(raw string) error
	}{
		{KeyCountries, func(raw string) error { return decodeSlot(raw, &snap.Countries) }},
		{KeyCities, func(raw string) error { return decodeSlot(raw, &snap.Cities) }},
		{KeyRecent, func(raw string) error { return decodeSlot(raw, &snap.Recent) }},
	}

	for _, slot := range slots {
		raw, err := s.get(ctx, slot.key)
		if err != nil {
			return travel.EmptySnapshot(), err
		}
		if raw == "" {
			continue
		}
		if err := slot.decode(raw); err != nil {
			s.logger.Warn("ignoring unreadable saved state", "key", slot.key, "err", err)
		}
	}

	// A slot holding JSON null decodes to a nil collection.
	if snap.Countries == nil {
		snap.Countries = []string{}
	}
	if snap.Cities == nil {
		snap.Cities = map[string][]string{}
	}
	if snap.Recent == nil {
		snap.Recent = []travel.Visit{}
	}

	return snap, nil
}

// decodeSlot assigns the decoded value to dest only when the whole slot
// parses, so a partly valid value never leaks into the state.
func decodeSlot[T any](raw string, dest *T) error {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	*dest = v
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Save writes all three slots in one transaction.
func (s *Store) Save(ctx context.Context, snap travel.Snapshot) (err error) {
	cities := snap.Cities
	if cities == nil {
		cities = map[string][]string{}
	}

	values := make(map[string]string, 3)
	for key, v := range map[string]any{
		KeyCountries: nonNil(snap.Countries),
		KeyCities:    cities,
		KeyRecent:    nonNil(snap.Recent),
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		values[key] = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	now := time.Now().UTC()
	for _, key := range []string{KeyCountries, KeyCities, KeyRecent} {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, values[key], now,
		)
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Clear deletes the saved state.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM local_state WHERE key IN (?, ?, ?)",
		KeyCountries, KeyCities, KeyRecent,
	)
	if err != nil {
		return fmt.Errorf("clearing saved state: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
