package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/been/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned by every endpoint that signs a user in.
type sessionResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// signUpResponse carries a session only when accounts are auto-confirmed.
type signUpResponse struct {
	UserID    string           `json:"user_id"`
	Email     string           `json:"email"`
	Confirmed bool             `json:"confirmed"`
	Message   string           `json:"message,omitempty"`
	Session   *sessionResponse `json:"session,omitempty"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// startSession issues a session, sets the browser cookie and answers with
// the token for API clients.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *auth.User, code int) {
	sess, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		slog.Error("creating session", "user_id", user.ID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, sess)
	apiJSON(w, newSessionResponse(sess, user), code)
}

func newSessionResponse(sess *auth.Session, user *auth.User) *sessionResponse {
	return &sessionResponse{
		AccessToken: sess.Token,
		UserID:      user.ID,
		Email:       user.Email,
		ExpiresAt:   sess.ExpiresAt,
	}
}

// handleSignUp creates an account. Unless accounts are auto-confirmed, a
// confirmation link is mailed and no session is issued.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := auth.ValidateSignUp(req.Email, req.Password); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.users.Create(r.Context(), req.Email, req.Password, s.config.AutoConfirm)
	if errors.Is(err, auth.ErrEmailTaken) {
		apiError(w, "an account with that email already exists", http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("creating user", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("sign-up", "user_id", user.ID, "auto_confirmed", user.Confirmed)

	resp := signUpResponse{UserID: user.ID, Email: user.Email, Confirmed: user.Confirmed}

	if user.Confirmed {
		sess, err := s.sessions.Create(r.Context(), user.ID)
		if err != nil {
			slog.Error("creating session", "user_id", user.ID, "err", err)
			apiError(w, "internal error", http.StatusInternalServerError)
			return
		}
		auth.SetCookie(w, sess)
		resp.Session = newSessionResponse(sess, user)
		apiJSON(w, resp, http.StatusCreated)
		return
	}

	// An account that cannot be confirmed is removed so the email can sign
	// up again.
	token, err := s.tokens.Create(r.Context(), user.ID)
	if err != nil {
		slog.Error("creating confirmation token", "user_id", user.ID, "err", err)
		s.discardUser(r, user)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if _, err := s.mailer.SendConfirmation(user.Email, token); err != nil {
		slog.Error("sending confirmation", "user_id", user.ID, "err", err)
		s.discardUser(r, user)
		apiError(w, "could not send confirmation email", http.StatusBadGateway)
		return
	}

	resp.Message = "check your email to confirm your account"
	apiJSON(w, resp, http.StatusCreated)
}

func (s *Server) discardUser(r *http.Request, user *auth.User) {
	if err := s.users.Delete(r.Context(), user.ID); err != nil {
		slog.Error("removing unconfirmable user", "user_id", user.ID, "err", err)
	}
}

// handleSignIn checks a password and starts a session.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if s.limiter.Limited(ip) {
		apiError(w, "too many failed attempts, try again later", http.StatusTooManyRequests)
		return
	}

	req, err := decodeCredentials(w, r)
	if err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.ObserveSignIn("password", false)
		if s.limiter.RecordFailure(ip) {
			slog.Warn("sign-in rate limited", "ip", ip)
		}
		apiError(w, "invalid email or password", http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrNotConfirmed):
		s.metrics.ObserveSignIn("password", false)
		apiError(w, "email not confirmed", http.StatusForbidden)
		return
	case err != nil:
		slog.Error("authenticating", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveSignIn("password", true)
	slog.Info("sign-in", "user_id", user.ID, "method", "password")
	s.startSession(w, r, user, http.StatusOK)
}

// handleSignOut destroys the caller's session. It succeeds for unknown
// tokens so clients can always clear their local state.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), auth.TokenFromRequest(r)); err != nil {
		slog.Error("destroying session", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	auth.ClearCookie(w)
	apiJSON(w, map[string]string{"status": "signed out"}, http.StatusOK)
}

// handleSession reports who the caller's session belongs to.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := s.users.GetByID(r.Context(), userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		apiError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.Error("loading user", "user_id", userID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"user_id": user.ID, "email": user.Email}, http.StatusOK)
}

// handleConfirm consumes an emailed confirmation token.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "missing token", http.StatusBadRequest)
		return
	}

	userID, err := s.tokens.Consume(r.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		apiError(w, "invalid or expired confirmation link", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("consuming confirmation token", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := s.users.Confirm(r.Context(), userID); err != nil {
		slog.Error("confirming user", "user_id", userID, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("email confirmed", "user_id", userID)
	apiJSON(w, map[string]string{"status": "confirmed"}, http.StatusOK)
}
