package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcraddock/been/internal/account"
	"github.com/evcraddock/been/internal/travel"
)

func TestGetTravelData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/travel" {
			t.Errorf("path = %q, want /api/travel", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer testtoken" {
			t.Error("expected Bearer testtoken")
		}
		w.Header().Set("Content-Type", "application/json")
		rec := account.Record{UserID: "u1", Snapshot: travel.Snapshot{Countries: []string{"France"}}}
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testtoken")
	rec, err := c.GetTravelData(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.UserID != "u1" || len(rec.Countries) != 1 || rec.Countries[0] != "France" {
		t.Errorf("record = %+v", rec)
	}
}

func TestPutTravelData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		var snap travel.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(snap.Cities["Peru"]) != 0 {
			t.Errorf("cities = %v", snap.Cities)
		}
		if _, ok := snap.Cities["Peru"]; !ok {
			t.Error("expected empty Peru city set to be sent")
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(account.Record{UserID: "u1", Snapshot: snap}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	snap := travel.EmptySnapshot()
	snap.Cities["Peru"] = []string{}

	c := New(srv.URL, "testtoken")
	if _, err := c.PutTravelData(context.Background(), snap); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"db exploded"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "testtoken")
	_, err := c.GetTravelData(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "db exploded" {
		t.Errorf("error = %q", err.Error())
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected APIError with 500, got %v", err)
	}
}

func TestUnauthorizedAndNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "").GetTravelData(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cities/FR" || r.URL.Query().Get("q") != "par" {
			t.Errorf("url = %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"code":"FR","source":"static","cities":[{"name":"Paris","population":0,"admin_name":""}]}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, "").Cities(context.Background(), "FR", "par")
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if resp.Source != "static" || len(resp.Cities) != 1 || resp.Cities[0].Name != "Paris" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWithTokenCopies(t *testing.T) {
	c := New("http://example.com", "a")
	d := c.WithToken("b")
	if c.token != "a" || d.token != "b" {
		t.Errorf("tokens = %q, %q", c.token, d.token)
	}
}
