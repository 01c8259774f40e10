package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/geo"
)

// newCityDirectory builds the city lookup chain. Tests point it at fixtures.
var newCityDirectory = func(username string, opts ...cities.Option) *cities.Directory {
	return cities.NewDirectory(username, opts...)
}

// cityEntry is a directory city with its visited marker.
type cityEntry struct {
	cities.City
	Visited bool `json:"visited"`
}

type citiesResult struct {
	Country string      `json:"country"`
	Code    string      `json:"code"`
	Source  string      `json:"source"`
	Cities  []cityEntry `json:"cities"`
}

func newCitiesCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "cities <country>",
		Short: "List a country's cities",
		Long:  "List the major cities of a country, marking the ones you have visited. The country may be a name or a two-letter code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCities(cmd, args[0], search)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "only show cities whose name contains this text")

	return cmd
}

func runCities(cmd *cobra.Command, country, search string) error {
	country, err := requireName("country", country)
	if err != nil {
		return err
	}

	ref := loadReference(cmd, false, true)
	name, code, ok := resolveCountry(ref.Catalog, country)
	if !ok {
		return fmt.Errorf("unknown country %q (try a two-letter code such as FR)", country)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, source := a.lookupCities(cmd.Context(), code)
	list = cities.Filter(list, search)

	visited := make(map[string]bool)
	for _, c := range a.tracker.CitiesOf(name) {
		visited[c] = true
	}

	if isJSON() {
		entries := make([]cityEntry, 0, len(list))
		for _, c := range list {
			entries = append(entries, cityEntry{City: c, Visited: visited[c.Name]})
		}
		return printJSON(a.out, citiesResult{Country: name, Code: code, Source: string(source), Cities: entries})
	}

	fmt.Fprintf(a.out, "%s %s\n\n", ref.Catalog.Flag(name), name)
	printCities(a.out, name, list, visited)
	return nil
}

// resolveCountry maps a display name or two-letter code to the name used
// as the travel key and the code used for city lookups.
func resolveCountry(catalog *geo.Catalog, arg string) (name, code string, ok bool) {
	if len(arg) == 2 {
		if c, found := catalog.ByCode(arg); found {
			return c.Name, c.CCA2, true
		}
		return strings.ToUpper(arg), strings.ToUpper(arg), true
	}
	if c, found := catalog.Find(arg); found && c.CCA2 != "" {
		return c.Name, c.CCA2, true
	}
	return "", "", false
}

// lookupCities asks the account server when this device has no GeoNames
// account but a server is configured, so the server's cache is shared. A
// failed server call falls back to running the chain here.
func (a *app) lookupCities(ctx context.Context, code string) ([]cities.City, cities.Source) {
	if getGeoNamesUsername() == "" && serverConfigured() {
		resp, err := a.auth.API().Cities(ctx, code, "")
		if err == nil {
			return resp.Cities, resp.Source
		}
		slog.Warn("server city lookup failed, searching locally", "code", code, "err", err)
	}

	dir, closeCache := cityDirectory(ctx)
	defer closeCache()
	return dir.LookupWithSource(ctx, code)
}

// cityDirectory assembles the lookup chain with a Redis cache when one is
// configured. The returned func releases the cache connection.
func cityDirectory(ctx context.Context) (*cities.Directory, func()) {
	opts := []cities.Option{cities.WithLogger(slog.Default())}
	cleanup := func() {}

	if url := getRedisURL(); url != "" {
		cache, closeFn, err := cities.NewRedisCacheFromURL(ctx, url)
		if err != nil {
			slog.Warn("city cache unavailable", "err", err)
		} else {
			opts = append(opts, cities.WithCache(cache))
			cleanup = func() {
				if err := closeFn(); err != nil {
					slog.Warn("closing city cache", "err", err)
				}
			}
		}
	}

	return newCityDirectory(getGeoNamesUsername(), opts...), cleanup
}
