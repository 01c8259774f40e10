// Package geo loads the country reference data: boundary polygons and
// country metadata. Both are fetched once and used read-only.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const userAgent = "been/1.0"

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// getJSON fetches url and decodes the JSON body into dest.
func getJSON(ctx context.Context, hc *http.Client, url string, dest any) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
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

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
