package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/been/internal/auth"
	"github.com/evcraddock/been/internal/metrics"
)

// ceremonyTTL bounds how long an unfinished WebAuthn ceremony is kept.
const ceremonyTTL = 5 * time.Minute

type ceremony struct {
	data    *webauthn.SessionData
	started time.Time
}

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.SessionStore
	users    *auth.UserStore
	metrics  *metrics.Metrics
	now      func() time.Time

	// Registration ceremonies are keyed by user ID, login ceremonies by a
	// random ID handed to the client with the login options.
	mu          sync.Mutex
	regSessions map[string]ceremony
	loginData   map[string]ceremony
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.PasskeyStore, sessions *auth.SessionStore, users *auth.UserStore, m *metrics.Metrics) (*passkeyHandlers, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "been",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{cfg.BaseURL},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:         wan,
		passkeys:    passkeys,
		sessions:    sessions,
		users:       users,
		metrics:     m,
		now:         time.Now,
		regSessions: make(map[string]ceremony),
		loginData:   make(map[string]ceremony),
	}, nil
}

// take removes and returns an unexpired ceremony. Callers hold mu.
func (h *passkeyHandlers) take(m map[string]ceremony, key string) (*webauthn.SessionData, bool) {
	c, ok := m[key]
	if !ok {
		return nil, false
	}
	delete(m, key)
	if h.now().Sub(c.started) > ceremonyTTL {
		return nil, false
	}
	return c.data, true
}

// expire drops stale ceremonies. Callers hold mu.
func (h *passkeyHandlers) expire() {
	cutoff := h.now().Add(-ceremonyTTL)
	for _, m := range []map[string]ceremony{h.regSessions, h.loginData} {
		for k, c := range m {
			if c.started.Before(cutoff) {
				delete(m, k)
			}
		}
	}
}

func (h *passkeyHandlers) passkeyUser(r *http.Request, userID string) (*auth.PasskeyUser, error) {
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	creds, err := h.passkeys.WebAuthnCredentials(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	return auth.NewPasskeyUser(user, creds), nil
}

// handleBeginRegistration starts passkey registration for the signed-in
// user.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.passkeyUser(r, userID)
	if err != nil {
		slog.Error("loading passkey user", "user_id", userID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Exclude existing credentials so the same authenticator is not
	// registered twice.
	creds := user.WebAuthnCredentials()
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user, webauthn.WithExclusions(excludeList))
	if err != nil {
		slog.Error("beginning registration", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.expire()
	h.regSessions[userID] = ceremony{data: session, started: h.now()}
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration verifies the authenticator response and stores
// the credential under ?name= (default "Passkey").
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	h.mu.Lock()
	session, ok := h.take(h.regSessions, userID)
	h.mu.Unlock()

	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	user, err := h.passkeyUser(r, userID)
	if err != nil {
		slog.Error("loading passkey user", "user_id", userID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(user, *session, r)
	if err != nil {
		slog.Warn("finishing registration", "user_id", userID, "err", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(r.Context(), userID, name, credential); err != nil {
		slog.Error("saving credential", "user_id", userID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type loginOptions struct {
	Ceremony string                        `json:"ceremony"`
	Options  *protocol.CredentialAssertion `json:"options"`
}

// handleBeginLogin starts a discoverable passkey login. The returned
// ceremony ID must be passed back as ?ceremony= when finishing.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id, err := ceremonyID()
	if err != nil {
		slog.Error("generating ceremony id", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.expire()
	h.loginData[id] = ceremony{data: session, started: h.now()}
	h.mu.Unlock()

	apiJSON(w, loginOptions{Ceremony: id, Options: assertion}, http.StatusOK)
}

// handleFinishLogin completes a passkey login and issues a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	session, ok := h.take(h.loginData, r.URL.Query().Get("ceremony"))
	h.mu.Unlock()

	if !ok {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var loggedIn *auth.User

	// userHandle is the WebAuthnID, which is the user ID.
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		user, err := h.passkeyUser(r, string(userHandle))
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		if err != nil {
			return nil, err
		}
		loggedIn = user.User()
		return user, nil
	}

	if _, _, err := h.wan.FinishPasskeyLogin(handler, *session, r); err != nil {
		h.metrics.ObserveSignIn("passkey", false)
		slog.Warn("finishing passkey login", "err", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	sess, err := h.sessions.Create(r.Context(), loggedIn.ID)
	if err != nil {
		slog.Error("creating session", "user_id", loggedIn.ID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, sess)

	h.metrics.ObserveSignIn("passkey", true)
	slog.Info("sign-in", "user_id", loggedIn.ID, "method", "passkey")
	apiJSON(w, newSessionResponse(sess, loggedIn), http.StatusOK)
}

func ceremonyID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
