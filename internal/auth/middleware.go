package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

type contextKey struct{}

// WithUserID returns a context carrying the signed-in user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the user ID set by RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// RequireSession is middleware that rejects requests without a valid
// session token with a JSON 401 and otherwise stores the user ID in the
// request context.
func RequireSession(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessions.Validate(r.Context(), TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, ErrInvalidSession) {
				slog.Error("validating session", "err", err)
				writeError(w, "internal error", http.StatusInternalServerError)
				return
			}
			writeError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

// RateLimiter tracks failed sign-in attempts per client.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	maxFail  int
	now      func() time.Time
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// NewRateLimiter allows ten failures per client per minute.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		window:   rateLimitWindow,
		maxFail:  rateLimitMaxFail,
		now:      time.Now,
	}
}

// prune drops attempts outside the window. Callers hold mu.
func (rl *RateLimiter) prune(key string) []time.Time {
	cutoff := rl.now().Add(-rl.window)
	valid := rl.attempts[key][:0]
	for _, t := range rl.attempts[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, key)
		return nil
	}
	rl.attempts[key] = valid
	return valid
}

// Limited reports whether key has used up its failures.
func (rl *RateLimiter) Limited(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(key)) >= rl.maxFail
}

// RecordFailure records a failed attempt and returns true if key is now
// rate limited.
func (rl *RateLimiter) RecordFailure(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := append(rl.prune(key), rl.now())
	rl.attempts[key] = valid
	return len(valid) >= rl.maxFail
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
