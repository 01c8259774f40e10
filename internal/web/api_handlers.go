package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/been/internal/account"
	"github.com/evcraddock/been/internal/auth"
	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/travel"
)

// maxTravelBody bounds PUT /api/travel request bodies.
const maxTravelBody = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// handleGetTravel returns the caller's travel record, or 404 when none has
// been stored yet.
func (s *Server) handleGetTravel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	rec, err := s.travel.Get(r.Context(), userID)
	if errors.Is(err, account.ErrNotFound) {
		apiError(w, "no travel data", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("loading travel record", "user_id", userID, "err", err)
		apiError(w, "loading travel data failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, rec, http.StatusOK)
}

// handlePutTravel replaces the caller's travel record.
func (s *Server) handlePutTravel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var snap travel.Snapshot
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTravelBody))
	if err := dec.Decode(&snap); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validateSnapshot(snap); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.travel.Upsert(r.Context(), account.Record{UserID: userID, Snapshot: snap})
	if err != nil {
		slog.Error("saving travel record", "user_id", userID, "err", err)
		apiError(w, "saving travel data failed", http.StatusInternalServerError)
		return
	}
	s.metrics.TravelUpserts.Inc()

	apiJSON(w, rec, http.StatusOK)
}

func validateSnapshot(snap travel.Snapshot) error {
	for _, name := range snap.Countries {
		if strings.TrimSpace(name) == "" {
			return errors.New("country names must not be empty")
		}
	}
	for country := range snap.Cities {
		if strings.TrimSpace(country) == "" {
			return errors.New("city index keys must not be empty")
		}
	}
	if len(snap.Recent) > travel.MaxRecent {
		return errors.New("too many recent visits")
	}
	return nil
}

// handleCities runs the city lookup chain for a country code, optionally
// filtered by ?q=.
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if len(code) != 2 {
		apiError(w, "country code must be two letters", http.StatusBadRequest)
		return
	}

	list, source := s.cities.LookupWithSource(r.Context(), code)
	s.metrics.ObserveCityLookup(string(source))

	if q := r.URL.Query().Get("q"); q != "" {
		list = cities.Filter(list, q)
	}

	apiJSON(w, map[string]any{
		"code":   code,
		"source": source,
		"cities": list,
	}, http.StatusOK)
}
