package tracker

import (
	"context"
	"errors"

	"github.com/evcraddock/been/internal/client"
	"github.com/evcraddock/been/internal/travel"
)

var errBoom = errors.New("boom")

type fakeLocal struct {
	snap    travel.Snapshot
	loads   int
	saves   int
	clears  int
	loadErr error
	saveErr error
}

func newFakeLocal(snap travel.Snapshot) *fakeLocal {
	return &fakeLocal{snap: snap}
}

func (f *fakeLocal) Load(context.Context) (travel.Snapshot, error) {
	f.loads++
	if f.loadErr != nil {
		return travel.Snapshot{}, f.loadErr
	}
	return f.snap, nil
}

func (f *fakeLocal) Save(_ context.Context, snap travel.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.snap = snap
	return nil
}

func (f *fakeLocal) Clear(context.Context) error {
	f.clears++
	f.snap = travel.EmptySnapshot()
	return nil
}

type fakeRemote struct {
	records   map[string]travel.Snapshot
	fetches   int
	upserts   int
	fetchErr  error
	upsertErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[string]travel.Snapshot)}
}

func (f *fakeRemote) Fetch(_ context.Context, userID string) (travel.Snapshot, bool, error) {
	f.fetches++
	if f.fetchErr != nil {
		return travel.Snapshot{}, false, f.fetchErr
	}
	snap, ok := f.records[userID]
	if !ok {
		return travel.EmptySnapshot(), false, nil
	}
	return snap, true, nil
}

func (f *fakeRemote) Upsert(_ context.Context, userID string, snap travel.Snapshot) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	f.records[userID] = snap
	return nil
}

type fakeAuth struct {
	session *client.Session
	subs    []func(client.Event)
}

func (f *fakeAuth) Session() *client.Session { return f.session }

func (f *fakeAuth) Subscribe(fn func(client.Event)) func() {
	f.subs = append(f.subs, fn)
	idx := len(f.subs) - 1
	return func() { f.subs[idx] = nil }
}

func (f *fakeAuth) signIn(userID string) {
	f.session = &client.Session{Token: "tok-" + userID, UserID: userID}
	f.emit(client.Event{Type: client.EventSignedIn, Session: f.session})
}

func (f *fakeAuth) signOut() {
	f.session = nil
	f.emit(client.Event{Type: client.EventSignedOut})
}

func (f *fakeAuth) emit(ev client.Event) {
	for _, fn := range f.subs {
		if fn != nil {
			fn(ev)
		}
	}
}
