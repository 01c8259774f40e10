// Package tracker owns the in-memory travel state and keeps it in sync
// with the device's local store and, when signed in, the user's account
// record.
//
// Every mutation writes the full state through to the local store first
// and then, if a session is active, replaces the remote record. There is
// no merge: while signed in the remote record is the source of truth at
// hydration time, otherwise the local store is.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/been/internal/client"
	"github.com/evcraddock/been/internal/travel"
)

// LocalStore persists state on the device.
type LocalStore interface {
	Load(ctx context.Context) (travel.Snapshot, error)
	Save(ctx context.Context, snap travel.Snapshot) error
	Clear(ctx context.Context) error
}

// RemoteStore holds one travel record per user.
type RemoteStore interface {
	Fetch(ctx context.Context, userID string) (snap travel.Snapshot, found bool, err error)
	Upsert(ctx context.Context, userID string, snap travel.Snapshot) error
}

// AuthProvider reports the current session and session changes.
type AuthProvider interface {
	Session() *client.Session
	Subscribe(fn func(client.Event)) (unsubscribe func())
}

// ErrSyncSuspended is the Result error of writes skipped because the
// remote record could not be loaded.
var ErrSyncSuspended = errors.New("remote sync suspended after failed load")

// Outcome describes where a change was persisted.
type Outcome int

const (
	// OutcomeUnchanged means the call was a no-op and nothing was written.
	OutcomeUnchanged Outcome = iota
	// OutcomeLocalOnly means no session is active; only the device has it.
	OutcomeLocalOnly
	// OutcomeSynced means both the device and the account have it.
	OutcomeSynced
	// OutcomeDegraded means the remote write failed or was skipped; the
	// device copy is authoritative.
	OutcomeDegraded
	// OutcomeAuthRequired means the server rejected the session.
	OutcomeAuthRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeLocalOnly:
		return "local_only"
	case OutcomeSynced:
		return "synced"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeAuthRequired:
		return "auth_required"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result reports how a mutation or hydration was persisted. Err carries
// the remote failure for OutcomeDegraded and OutcomeAuthRequired.
type Result struct {
	Outcome Outcome
	Changed bool
	Err     error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for sync failures.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock sets the time source for recent-visit dates.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker is the travel state container. It is meant to be driven from
// one goroutine but guards its state so concurrent use is safe.
type Tracker struct {
	local  LocalStore
	remote RemoteStore
	auth   AuthProvider
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	ctx         context.Context
	state       *travel.State
	userID      string
	suspended   bool
	authPrompt  bool
	unsubscribe func()
}

// New creates a tracker. remote and auth may be nil for a device that never
// signs in.
func New(local LocalStore, remote RemoteStore, auth AuthProvider, opts ...Option) *Tracker {
	t := &Tracker{
		local:  local,
		remote: remote,
		auth:   auth,
		logger: slog.Default(),
		now:    time.Now,
		ctx:    context.Background(),
		state:  travel.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init hydrates the state and subscribes to session changes. ctx is also
// used for the work triggered by later session events.
func (t *Tracker) Init(ctx context.Context) Result {
	t.mu.Lock()
	t.ctx = ctx
	var sess *client.Session
	if t.auth != nil {
		sess = t.auth.Session()
	}
	res := t.hydrate(ctx, sess)
	t.mu.Unlock()

	if t.auth != nil {
		t.unsubscribe = t.auth.Subscribe(t.onAuthEvent)
	}
	return res
}

// Teardown stops listening for session changes.
func (t *Tracker) Teardown() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// hydrate replaces the state from the remote record when sess is set and
// from the local store otherwise. A signed-in user without a record keeps
// the device's saved state. Callers hold mu.
func (t *Tracker) hydrate(ctx context.Context, sess *client.Session) Result {
	t.state.Reset()
	t.suspended = false
	t.userID = ""

	if sess != nil && t.remote != nil {
		t.userID = sess.UserID
		snap, found, err := t.remote.Fetch(ctx, sess.UserID)
		if err != nil {
			// An empty state must not overwrite the account record.
			t.suspended = true
			if errors.Is(err, client.ErrUnauthorized) {
				t.authPrompt = true
				t.logger.Warn("session rejected while loading travel data", "user_id", sess.UserID, "err", err)
				return Result{Outcome: OutcomeAuthRequired, Err: err}
			}
			t.logger.Warn("loading travel data failed", "user_id", sess.UserID, "err", err)
			return Result{Outcome: OutcomeDegraded, Err: err}
		}
		if found {
			t.state.Restore(snap)
		} else {
			// A new account starts from what this device has saved; the
			// next change uploads it.
			t.restoreLocal(ctx)
		}
		return Result{Outcome: OutcomeSynced}
	}

	t.restoreLocal(ctx)
	return Result{Outcome: OutcomeLocalOnly}
}

// restoreLocal loads the device's saved state. A failed load leaves the
// state empty. Callers hold mu.
func (t *Tracker) restoreLocal(ctx context.Context) {
	snap, err := t.local.Load(ctx)
	if err != nil {
		t.logger.Warn("loading saved state failed", "err", err)
		return
	}
	t.state.Restore(snap)
}

func (t *Tracker) onAuthEvent(ev client.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case client.EventSignedIn:
		t.authPrompt = false
		t.hydrate(t.ctx, ev.Session)
	case client.EventSignedOut:
		t.hydrate(t.ctx, nil)
		t.authPrompt = true
	}
}

// persist writes the state through. Callers hold mu.
func (t *Tracker) persist(ctx context.Context) (Result, error) {
	snap := t.state.Snapshot()
	if err := t.local.Save(ctx, snap); err != nil {
		return Result{}, fmt.Errorf("saving travel state: %w", err)
	}
	return t.push(ctx, snap), nil
}

// push replaces the remote record when signed in. Callers hold mu.
func (t *Tracker) push(ctx context.Context, snap travel.Snapshot) Result {
	if t.userID == "" || t.remote == nil {
		return Result{Outcome: OutcomeLocalOnly, Changed: true}
	}
	if t.suspended {
		return Result{Outcome: OutcomeDegraded, Changed: true, Err: ErrSyncSuspended}
	}

	if err := t.remote.Upsert(ctx, t.userID, snap); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			t.authPrompt = true
			t.logger.Warn("session rejected while saving travel data", "user_id", t.userID, "err", err)
			return Result{Outcome: OutcomeAuthRequired, Changed: true, Err: err}
		}
		t.logger.Warn("saving travel data to account failed", "user_id", t.userID, "err", err)
		return Result{Outcome: OutcomeDegraded, Changed: true, Err: err}
	}
	return Result{Outcome: OutcomeSynced, Changed: true}
}

// MarkCountry marks a country visited and records a recent visit. Marking
// a visited country is a no-op with OutcomeUnchanged.
func (t *Tracker) MarkCountry(ctx context.Context, name string) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.MarkCountry(name, t.now()) {
		return Result{Outcome: OutcomeUnchanged}, nil
	}
	return t.persist(ctx)
}

// UnmarkCountry removes a country with its cities and recent visits.
// The state is written through even when the country was not marked,
// since a city entry of an unmarked country is dropped too.
func (t *Tracker) UnmarkCountry(ctx context.Context, name string) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := t.state.UnmarkCountry(name)
	res, err := t.persist(ctx)
	res.Changed = removed
	return res, err
}

// ToggleCity flips a city's membership and returns the new membership.
func (t *Tracker) ToggleCity(ctx context.Context, country, city string) (bool, Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	visited := t.state.ToggleCity(country, city)
	res, err := t.persist(ctx)
	return visited, res, err
}

// Reset clears everything, deletes the saved device state and, when
// signed in, replaces the account record with an empty one.
func (t *Tracker) Reset(ctx context.Context) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Reset()
	if err := t.local.Clear(ctx); err != nil {
		return Result{}, fmt.Errorf("clearing saved state: %w", err)
	}
	return t.push(ctx, travel.EmptySnapshot()), nil
}

// AuthPromptRequired reports whether the user should be asked to sign in
// again.
func (t *Tracker) AuthPromptRequired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authPrompt
}

// SyncSuspended reports whether remote writes are being skipped.
func (t *Tracker) SyncSuspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspended
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() travel.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Snapshot()
}

// Visited reports whether a country is marked.
func (t *Tracker) Visited(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Visited(name)
}

// CitiesOf returns the visited cities of a country.
func (t *Tracker) CitiesOf(country string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.CitiesOf(country)
}

// Stats computes the stats view.
func (t *Tracker) Stats(lookup travel.LookupFunc) travel.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return travel.ComputeStats(t.state, lookup)
}

// Items returns the list view.
func (t *Tracker) Items(filter travel.Filter, lookup travel.LookupFunc) []travel.Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Items(filter, lookup)
}
