package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/been/internal/auth"
	"github.com/evcraddock/been/internal/db"
	"github.com/evcraddock/been/internal/travel"
	"github.com/evcraddock/been/internal/web"
)

type memorySessions struct {
	session *Session
	saves   int
}

func (m *memorySessions) LoadSession() (*Session, error) { return m.session, nil }

func (m *memorySessions) SaveSession(s *Session) error {
	m.session = s
	m.saves++
	return nil
}

// testAccountServer runs the real account server on a temp database.
func testAccountServer(t *testing.T, autoConfirm bool) *httptest.Server {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	srv, err := web.NewServer(d, auth.Config{DevMode: true, AutoConfirm: autoConfirm, BaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestAuthSignUpSignInSignOut(t *testing.T) {
	ts := testAccountServer(t, true)
	store := &memorySessions{}
	a, err := NewAuth(ts.URL, store)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	var events []EventType
	unsubscribe := a.Subscribe(func(ev Event) { events = append(events, ev.Type) })
	defer unsubscribe()

	ctx := context.Background()
	sess, _, err := a.SignUp(ctx, "traveler@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess == nil || sess.Token == "" || sess.UserID == "" {
		t.Fatalf("session = %+v", sess)
	}
	if store.session == nil || store.session.Token != sess.Token {
		t.Error("expected session persisted")
	}

	info, err := a.Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if info.Email != "traveler@example.com" {
		t.Errorf("email = %q", info.Email)
	}

	if err := a.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if a.Session() != nil || store.session != nil {
		t.Error("expected session cleared")
	}

	if _, err := a.SignIn(ctx, "traveler@example.com", "wrong-password"); err == nil {
		t.Error("expected sign-in failure")
	}
	if _, err := a.SignIn(ctx, "traveler@example.com", "secret123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	want := []EventType{EventSignedIn, EventSignedOut, EventSignedIn}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestAuthSignUpNeedsConfirmation(t *testing.T) {
	ts := testAccountServer(t, false)
	a, err := NewAuth(ts.URL, &memorySessions{})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	sess, msg, err := a.SignUp(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess != nil {
		t.Error("expected no session before confirmation")
	}
	if msg == "" {
		t.Error("expected confirmation message")
	}
	if a.Session() != nil {
		t.Error("expected signed out")
	}
}

func TestAuthVerifyRejectedSession(t *testing.T) {
	ts := testAccountServer(t, true)
	store := &memorySessions{session: &Session{Token: "stale", UserID: "u1"}}
	a, err := NewAuth(ts.URL, store)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	signedOut := false
	a.Subscribe(func(ev Event) { signedOut = ev.Type == EventSignedOut })

	if _, err := a.Verify(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !signedOut || a.Session() != nil {
		t.Error("expected rejected session to be cleared")
	}
}

func TestNewAuthDropsExpiredSession(t *testing.T) {
	store := &memorySessions{session: &Session{Token: "t", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}}
	a, err := NewAuth("http://unused", store)
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}
	if a.Session() != nil {
		t.Error("expected expired session to be ignored")
	}
}

func TestUnsubscribe(t *testing.T) {
	a, err := NewAuth("http://unused", &memorySessions{})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	calls := 0
	unsubscribe := a.Subscribe(func(Event) { calls++ })
	a.emit(Event{Type: EventSignedOut})
	unsubscribe()
	unsubscribe()
	a.emit(Event{Type: EventSignedOut})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRemoteStore(t *testing.T) {
	ts := testAccountServer(t, true)
	a, err := NewAuth(ts.URL, &memorySessions{})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}
	ctx := context.Background()
	sess, _, err := a.SignUp(ctx, "remote@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	remote := NewRemoteStore(a)

	snap, found, err := remote.Fetch(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if found || len(snap.Countries) != 0 {
		t.Errorf("expected no record, got found=%v %+v", found, snap)
	}

	want := travel.Snapshot{
		Countries: []string{"France"},
		Cities:    map[string][]string{"France": {"Paris"}},
		Recent:    []travel.Visit{{Name: "France", Date: "2024-05-01T10:00:00.000Z"}},
	}
	if err := remote.Upsert(ctx, sess.UserID, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snap, found, err = remote.Fetch(ctx, sess.UserID)
	if err != nil || !found {
		t.Fatalf("fetch: found=%v err=%v", found, err)
	}
	if len(snap.Countries) != 1 || snap.Countries[0] != "France" || snap.Cities["France"][0] != "Paris" {
		t.Errorf("snapshot = %+v", snap)
	}

	if err := remote.Upsert(ctx, "someone-else", want); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("upsert for other user: err = %v, want ErrUnauthorized", err)
	}
}
