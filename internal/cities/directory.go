// Package cities looks up the major cities of a country.
//
// Lookups walk a fallback chain: the GeoNames search API, then the bulk
// countries-states-cities dataset, then a built-in list for a few large
// countries. Each step runs at most once and an empty answer counts as a
// failure. A lookup never returns an error; the worst case is no cities.
package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeoNamesURL = "https://secure.geonames.org/searchJSON"
	defaultBulkURL     = "https://raw.githubusercontent.com/dr5hn/countries-states-cities-database/master/cities.json"
	userAgent          = "been/1.0"

	// MaxResults caps every step of the chain.
	MaxResults = 100

	// DefaultCacheTTL is how long successful remote lookups are cached.
	DefaultCacheTTL = 24 * time.Hour
)

// City is one entry of a country's city list.
type City struct {
	Name       string `json:"name"`
	Population int64  `json:"population"`
	AdminName  string `json:"admin_name"`
}

// Source names the step that produced a result.
type Source string

const (
	SourceNone     Source = "none"
	SourceCache    Source = "cache"
	SourceGeoNames Source = "geonames"
	SourceBulk     Source = "bulk"
	SourceStatic   Source = "static"
)

var errEmpty = errors.New("no cities returned")

// Directory resolves country codes to city lists.
type Directory struct {
	httpClient *http.Client
	username   string
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger

	// Overridable URLs for testing.
	geoNamesURL string
	bulkURL     string
}

// Option configures a Directory.
type Option func(*Directory)

// WithCache caches remote results. A nil cache disables caching.
func WithCache(c Cache) Option {
	return func(d *Directory) {
		d.cache = c
	}
}

// WithCacheTTL sets how long cached results live.
func WithCacheTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		d.cacheTTL = ttl
	}
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Directory) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// fetchTimeout bounds each remote step, so a stalled download falls through
// to the next step instead of hanging the lookup.
const fetchTimeout = 60 * time.Second

// NewDirectory creates a directory that queries GeoNames as username.
func NewDirectory(username string, opts ...Option) *Directory {
	d := &Directory{
		httpClient:  &http.Client{Timeout: fetchTimeout},
		username:    username,
		cacheTTL:    DefaultCacheTTL,
		logger:      slog.Default(),
		geoNamesURL: defaultGeoNamesURL,
		bulkURL:     defaultBulkURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Lookup returns up to 100 cities for a two-letter country code.
func (d *Directory) Lookup(ctx context.Context, countryCode string) []City {
	cities, _ := d.LookupWithSource(ctx, countryCode)
	return cities
}

// LookupWithSource is Lookup that also reports which step answered.
func (d *Directory) LookupWithSource(ctx context.Context, countryCode string) ([]City, Source) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if code == "" {
		return []City{}, SourceNone
	}

	if d.cache != nil {
		cached, ok, err := d.cache.Get(ctx, code)
		if err != nil {
			d.logger.Warn("city cache read failed", "country", code, "err", err)
		} else if ok && len(cached) > 0 {
			return cached, SourceCache
		}
	}

	steps := []struct {
		source Source
		fetch  func(context.Context, string) ([]City, error)
	}{
		{SourceGeoNames, d.fetchGeoNames},
		{SourceBulk, d.fetchBulk},
	}
	for _, step := range steps {
		cities, err := step.fetch(ctx, code)
		if err == nil && len(cities) == 0 {
			err = errEmpty
		}
		if err != nil {
			d.logger.Debug("city source failed, falling back",
				"source", string(step.source), "country", code, "err", err)
			continue
		}
		d.store(ctx, code, cities)
		return cities, step.source
	}

	if cities := Static(code); len(cities) > 0 {
		return cities, SourceStatic
	}
	return []City{}, SourceNone
}

func (d *Directory) store(ctx context.Context, code string, cities []City) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, code, cities, d.cacheTTL); err != nil {
		d.logger.Warn("city cache write failed", "country", code, "err", err)
	}
}

// geoNamesResponse is the searchJSON response. GeoNames reports errors such
// as an unknown username in a status object with HTTP 200.
type geoNamesResponse struct {
	GeoNames []struct {
		Name       string `json:"name"`
		Population int64  `json:"population"`
		AdminName1 string `json:"adminName1"`
	} `json:"geonames"`
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

func (d *Directory) fetchGeoNames(ctx context.Context, code string) ([]City, error) {
	if d.username == "" {
		return nil, errors.New("geonames username not configured")
	}

	params := url.Values{
		"country":      {code},
		"featureClass": {"P"},
		"maxRows":      {fmt.Sprint(MaxResults)},
		"orderby":      {"population"},
		"username":     {d.username},
	}

	var result geoNamesResponse
	err := d.get(ctx, d.geoNamesURL+"?"+params.Encode(), func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	if result.Status != nil {
		return nil, fmt.Errorf("geonames: %s (code %d)", result.Status.Message, result.Status.Value)
	}

	cities := make([]City, 0, len(result.GeoNames))
	for _, g := range result.GeoNames {
		cities = append(cities, City{Name: g.Name, Population: g.Population, AdminName: g.AdminName1})
	}
	return cities, nil
}

// bulkCity is one record of the bulk dataset.
type bulkCity struct {
	Name        string `json:"name"`
	StateName   string `json:"state_name"`
	CountryCode string `json:"country_code"`
}

// fetchBulk streams the bulk dataset and keeps the first matches.
// The download is abandoned once enough cities are found.
func (d *Directory) fetchBulk(ctx context.Context, code string) ([]City, error) {
	var cities []City
	err := d.get(ctx, d.bulkURL, func(resp *http.Response) error {
		dec := json.NewDecoder(resp.Body)
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("expected array, got %v", tok)
		}
		for dec.More() && len(cities) < MaxResults {
			var c bulkCity
			if err := dec.Decode(&c); err != nil {
				return err
			}
			if c.CountryCode == code {
				cities = append(cities, City{Name: c.Name, AdminName: c.StateName})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// get issues a GET request and hands a 200 response to decode.
func (d *Directory) get(ctx context.Context, rawURL string, decode func(*http.Response) error) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close body: %v)", err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := decode(resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Filter keeps the cities whose name contains query, case-insensitively.
// An empty query keeps everything.
func Filter(cities []City, query string) []City {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cities
	}
	out := []City{}
	for _, c := range cities {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
