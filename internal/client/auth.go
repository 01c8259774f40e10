package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/been/internal/travel"
)

// Session is the signed-in identity persisted between CLI runs.
type Session struct {
	Token     string    `yaml:"token" json:"-"`
	UserID    string    `yaml:"user_id" json:"user_id"`
	Email     string    `yaml:"email" json:"email"`
	ExpiresAt time.Time `yaml:"expires_at" json:"expires_at"`
}

// SessionStore persists the current session. A nil session means signed
// out.
type SessionStore interface {
	LoadSession() (*Session, error)
	SaveSession(*Session) error
}

// EventType identifies an auth state change.
type EventType int

const (
	EventSignedIn EventType = iota + 1
	EventSignedOut
)

func (t EventType) String() string {
	switch t {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event is delivered to subscribers when the session changes. Session is
// nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// Auth is the client-side authentication provider. It owns the current
// session and notifies subscribers of sign-in and sign-out.
type Auth struct {
	api   *Client
	store SessionStore
	now   func() time.Time

	mu      sync.Mutex
	session *Session
	subs    map[int]func(Event)
	nextSub int
}

// NewAuth creates a provider for the server at baseURL and loads any
// persisted session from store. Expired sessions are discarded.
func NewAuth(baseURL string, store SessionStore) (*Auth, error) {
	a := &Auth{
		api:   New(baseURL, ""),
		store: store,
		now:   time.Now,
		subs:  make(map[int]func(Event)),
	}

	sess, err := store.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess != nil && sess.Token != "" && (sess.ExpiresAt.IsZero() || a.now().Before(sess.ExpiresAt)) {
		a.session = sess
	}
	return a, nil
}

// Session returns the current session, or nil when signed out. It does not
// contact the server.
func (a *Auth) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	cp := *a.session
	return &cp
}

// Subscribe registers fn for session changes. Events are delivered
// synchronously on the goroutine that changed the session. The returned
// function unsubscribes.
func (a *Auth) Subscribe(fn func(Event)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

func (a *Auth) emit(ev Event) {
	a.mu.Lock()
	subs := make([]func(Event), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (a *Auth) setSession(sess *Session) error {
	if err := a.store.SaveSession(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
	return nil
}

func sessionFrom(resp *SessionResponse) *Session {
	return &Session{
		Token:     resp.AccessToken,
		UserID:    resp.UserID,
		Email:     resp.Email,
		ExpiresAt: resp.ExpiresAt,
	}
}

// SignUp creates an account. When the server confirms accounts
// immediately, the new session is stored and EventSignedIn emitted;
// otherwise the returned message tells the user to check their email.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*Session, string, error) {
	resp, err := a.api.SignUp(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if resp.Session == nil {
		return nil, resp.Message, nil
	}

	sess := sessionFrom(resp.Session)
	if err := a.setSession(sess); err != nil {
		return nil, "", err
	}
	a.emit(Event{Type: EventSignedIn, Session: sess})
	return sess, resp.Message, nil
}

// SignIn signs in with a password, stores the session and emits
// EventSignedIn.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := a.api.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := sessionFrom(resp)
	if err := a.setSession(sess); err != nil {
		return nil, err
	}
	a.emit(Event{Type: EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut ends the session on the server, forgets it locally and emits
// EventSignedOut. A server failure is logged; the local session is cleared
// regardless.
func (a *Auth) SignOut(ctx context.Context) error {
	sess := a.Session()
	if sess == nil {
		return nil
	}

	if err := a.api.WithToken(sess.Token).SignOut(ctx); err != nil {
		slog.Warn("server sign-out failed", "err", err)
	}

	if err := a.setSession(nil); err != nil {
		return err
	}
	a.emit(Event{Type: EventSignedOut})
	return nil
}

// Verify checks the current session with the server. A rejected session
// is cleared and EventSignedOut emitted.
func (a *Auth) Verify(ctx context.Context) (*SessionInfo, error) {
	sess := a.Session()
	if sess == nil {
		return nil, ErrUnauthorized
	}

	info, err := a.api.WithToken(sess.Token).Session(ctx)
	if errors.Is(err, ErrUnauthorized) {
		if serr := a.setSession(nil); serr != nil {
			return nil, serr
		}
		a.emit(Event{Type: EventSignedOut})
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// API returns a client authenticated as the current session.
func (a *Auth) API() *Client {
	if sess := a.Session(); sess != nil {
		return a.api.WithToken(sess.Token)
	}
	return a.api
}

// RemoteStore reads and writes the signed-in user's travel record through
// the account server.
type RemoteStore struct {
	auth *Auth
}

// NewRemoteStore creates a remote store that authenticates through a.
func NewRemoteStore(a *Auth) *RemoteStore {
	return &RemoteStore{auth: a}
}

func (r *RemoteStore) clientFor(userID string) (*Client, error) {
	sess := r.auth.Session()
	if sess == nil || sess.UserID != userID {
		return nil, ErrUnauthorized
	}
	return r.auth.api.WithToken(sess.Token), nil
}

// Fetch returns userID's record. found is false when none exists yet.
func (r *RemoteStore) Fetch(ctx context.Context, userID string) (snap travel.Snapshot, found bool, err error) {
	c, err := r.clientFor(userID)
	if err != nil {
		return travel.Snapshot{}, false, err
	}

	rec, err := c.GetTravelData(ctx)
	if errors.Is(err, ErrNotFound) {
		return travel.EmptySnapshot(), false, nil
	}
	if err != nil {
		return travel.Snapshot{}, false, fmt.Errorf("fetching travel data: %w", err)
	}
	return rec.Snapshot, true, nil
}

// Upsert replaces userID's record with snap.
func (r *RemoteStore) Upsert(ctx context.Context, userID string, snap travel.Snapshot) error {
	c, err := r.clientFor(userID)
	if err != nil {
		return err
	}
	if _, err := c.PutTravelData(ctx, snap); err != nil {
		return fmt.Errorf("saving travel data: %w", err)
	}
	return nil
}
