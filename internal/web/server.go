// Package web provides the account server: sign-up and sign-in, passkeys,
// the per-user travel record API and a shared city directory.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/been/internal/account"
	"github.com/evcraddock/been/internal/auth"
	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/logging"
	"github.com/evcraddock/been/internal/metrics"
)

// Server is the account HTTP server.
type Server struct {
	config   auth.Config
	users    *auth.UserStore
	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	mailer   *auth.Mailer
	limiter  *auth.RateLimiter
	travel   *account.Store
	cities   *cities.Directory
	metrics  *metrics.Metrics
	mux      *http.ServeMux
}

// NewServer creates a server backed by db. Cities are resolved with a
// directory that has no GeoNames username until SetCityDirectory is called.
func NewServer(db *sql.DB, cfg auth.Config) (*Server, error) {
	s := &Server{
		config:   cfg,
		users:    auth.NewUserStore(db),
		sessions: auth.NewSessionStore(db),
		tokens:   auth.NewTokenStore(db),
		mailer:   auth.NewMailer(cfg),
		limiter:  auth.NewRateLimiter(),
		travel:   account.NewStore(db),
		cities:   cities.NewDirectory("", cities.WithCache(cities.NewMemoryCache())),
		metrics:  metrics.New(),
		mux:      http.NewServeMux(),
	}

	passkeys, err := newPasskeyHandlers(cfg, auth.NewPasskeyStore(db), s.sessions, s.users, s.metrics)
	if err != nil {
		return nil, fmt.Errorf("setting up passkeys: %w", err)
	}

	requireSession := func(h http.HandlerFunc) http.Handler {
		return auth.RequireSession(s.sessions, h)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /auth/signout", s.handleSignOut)
	s.mux.Handle("GET /auth/session", requireSession(s.handleSession))
	s.mux.HandleFunc("GET /auth/confirm", s.handleConfirm)

	s.mux.Handle("POST /passkey/register/begin", requireSession(passkeys.handleBeginRegistration))
	s.mux.Handle("POST /passkey/register/finish", requireSession(passkeys.handleFinishRegistration))
	s.mux.HandleFunc("POST /passkey/login/begin", passkeys.handleBeginLogin)
	s.mux.HandleFunc("POST /passkey/login/finish", passkeys.handleFinishLogin)

	s.mux.Handle("GET /api/travel", requireSession(s.handleGetTravel))
	s.mux.Handle("PUT /api/travel", requireSession(s.handlePutTravel))
	s.mux.HandleFunc("GET /api/cities/{code}", s.handleCities)

	return s, nil
}

// SetCityDirectory replaces the directory behind /api/cities.
func (s *Server) SetCityDirectory(d *cities.Directory) {
	s.cities = d
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// statusWriter captures the response code for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)
	if r.URL.Path != "/metrics" {
		s.metrics.ObserveRequest(r.Pattern, sw.status)
	}
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           logging.RequestLogger(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting account server", "addr", srv.Addr, "base_url", s.config.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// cleanupLoop drops expired sessions and confirmation tokens hourly.
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if err := s.sessions.Cleanup(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("cleaning up sessions", "err", err)
		}
		if err := s.tokens.Cleanup(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("cleaning up tokens", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
