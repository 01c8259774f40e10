// Package account stores each user's travel record on the server.
//
// A user has at most one record. Writes replace the whole record; there is
// no field-level merge and no concurrency check, so the last writer wins.
package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evcraddock/been/internal/travel"
)

// ErrNotFound is returned when a user has no travel record.
var ErrNotFound = errors.New("travel record not found")

// Record is a user's stored travel state.
type Record struct {
	UserID string `json:"user_id"`
	travel.Snapshot
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes travel records. Queries use $N placeholders so
// they run on both SQLite and PostgreSQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a travel record store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the record for a user.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	var countries, cities, recent string
	rec := Record{UserID: userID}

	err := s.db.QueryRowContext(ctx,
		"SELECT countries, cities, recent_visits, updated_at FROM travel_data WHERE user_id = $1",
		userID,
	).Scan(&countries, &cities, &recent, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying travel record: %w", err)
	}

	rec.Snapshot = travel.EmptySnapshot()
	for _, f := range []struct {
		name string
		raw  string
		dest any
	}{
		{"countries", countries, &rec.Countries},
		{"cities", cities, &rec.Cities},
		{"recent_visits", recent, &rec.Recent},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f.name, err)
		}
	}

	return &rec, nil
}

// Upsert replaces the record for rec.UserID and returns what was stored.
func (s *Store) Upsert(ctx context.Context, rec Record) (*Record, error) {
	if rec.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	snap := normalize(rec.Snapshot)
	countries, err := json.Marshal(snap.Countries)
	if err != nil {
		return nil, fmt.Errorf("encoding countries: %w", err)
	}
	cities, err := json.Marshal(snap.Cities)
	if err != nil {
		return nil, fmt.Errorf("encoding cities: %w", err)
	}
	recent, err := json.Marshal(snap.Recent)
	if err != nil {
		return nil, fmt.Errorf("encoding recent visits: %w", err)
	}

	updated := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO travel_data (user_id, countries, cities, recent_visits, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			countries = excluded.countries,
			cities = excluded.cities,
			recent_visits = excluded.recent_visits,
			updated_at = excluded.updated_at`,
		rec.UserID, string(countries), string(cities), string(recent), updated,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting travel record: %w", err)
	}

	return &Record{UserID: rec.UserID, Snapshot: snap, UpdatedAt: updated}, nil
}

// normalize replaces nil collections so they encode as [] and {}.
func normalize(snap travel.Snapshot) travel.Snapshot {
	if snap.Countries == nil {
		snap.Countries = []string{}
	}
	cities := make(map[string][]string, len(snap.Cities))
	for k, v := range snap.Cities {
		if v == nil {
			v = []string{}
		}
		cities[k] = v
	}
	snap.Cities = cities
	if snap.Recent == nil {
		snap.Recent = []travel.Visit{}
	}
	return snap
}
