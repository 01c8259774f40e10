// Package client provides an HTTP client for the been account server and
// the session provider the CLI builds on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/been/internal/account"
	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/travel"
)

var (
	// ErrUnauthorized is returned when the server rejects the session.
	ErrUnauthorized = errors.New("not signed in or session expired")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets 401 and 404 responses match ErrUnauthorized and ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client is an HTTP client for the been API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for anonymous calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// SessionResponse is returned by sign-in and auto-confirmed sign-up.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignUpResponse is returned by POST /auth/signup.
type SignUpResponse struct {
	UserID    string           `json:"user_id"`
	Email     string           `json:"email"`
	Confirmed bool             `json:"confirmed"`
	Message   string           `json:"message"`
	Session   *SessionResponse `json:"session"`
}

// SessionInfo is returned by GET /auth/session.
type SessionInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CitiesResponse is returned by GET /api/cities/{code}.
type CitiesResponse struct {
	Code   string        `json:"code"`
	Source cities.Source `json:"source"`
	Cities []cities.City `json:"cities"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates an account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResponse, error) {
	var resp SignUpResponse
	if err := c.post(ctx, "/auth/signup", credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.post(ctx, "/auth/signin", credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut ends the client's session on the server.
func (c *Client) SignOut(ctx context.Context) error {
	return c.post(ctx, "/auth/signout", struct{}{}, nil)
}

// Session reports who the client's token belongs to.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.get(ctx, "/auth/session", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTravelData returns the signed-in user's travel record. It returns an
// error matching ErrNotFound when no record exists yet.
func (c *Client) GetTravelData(ctx context.Context) (*account.Record, error) {
	var rec account.Record
	if err := c.get(ctx, "/api/travel", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutTravelData replaces the signed-in user's travel record.
func (c *Client) PutTravelData(ctx context.Context, snap travel.Snapshot) (*account.Record, error) {
	var rec account.Record
	if err := c.send(ctx, http.MethodPut, "/api/travel", snap, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Cities runs the server's city lookup for a country code.
func (c *Client) Cities(ctx context.Context, code, query string) (*CitiesResponse, error) {
	path := "/api/cities/" + url.PathEscape(code)
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var resp CitiesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
