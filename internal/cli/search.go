package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var errNoBoundaries = errors.New("country boundaries are unavailable; check your connection and try again")

type searchResult struct {
	Name    string `json:"name"`
	Visited bool   `json:"visited"`
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search country names",
		Long:  "Search the country boundary dataset for names containing the query. Use the names it prints with mark.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0])
		},
	}
}

func runSearch(cmd *cobra.Command, query string) error {
	ref := loadReference(cmd, true, false)
	if ref.Boundaries == nil {
		return errNoBoundaries
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	results := []searchResult{}
	for _, name := range ref.Boundaries.Search(query) {
		results = append(results, searchResult{Name: name, Visited: a.tracker.Visited(name)})
	}

	if isJSON() {
		return printJSON(a.out, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(a.out, "No matching countries.")
		return nil
	}
	for _, r := range results {
		mark := " "
		if r.Visited {
			mark = "✓"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, r.Name)
	}
	return nil
}

type locateResult struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Country string  `json:"country,omitempty"`
	Found   bool    `json:"found"`
	Visited bool    `json:"visited"`
	Sync    string  `json:"sync,omitempty"`
}

func newLocateCmd() *cobra.Command {
	var mark bool

	cmd := &cobra.Command{
		Use:   "locate <lat> <lng>",
		Short: "Find the country at a coordinate",
		Long:  "Find the country containing a latitude/longitude, optionally marking it as visited. Put -- before negative coordinates: been locate -- -33.9 18.4",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, args[0], args[1], mark)
		},
	}

	cmd.Flags().BoolVar(&mark, "mark", false, "mark the country as visited")

	return cmd
}

func runLocate(cmd *cobra.Command, latArg, lngArg string, mark bool) error {
	lat, lng, err := parseCoordinate(latArg, lngArg)
	if err != nil {
		return err
	}

	ref := loadReference(cmd, true, false)
	if ref.Boundaries == nil {
		return errNoBoundaries
	}

	name, found := ref.Boundaries.Locate(lat, lng)
	res := locateResult{Lat: lat, Lng: lng, Country: name, Found: found}

	if found {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if mark {
			r, err := a.tracker.MarkCountry(cmd.Context(), name)
			if err != nil {
				return err
			}
			a.report(r)
			res.Sync = r.Outcome.String()
		}
		res.Visited = a.tracker.Visited(name)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, res)
	}

	switch {
	case !found:
		fmt.Fprintf(out, "No country at %g, %g.\n", lat, lng)
	case mark:
		fmt.Fprintf(out, "✓ %s marked as visited.\n", name)
	case res.Visited:
		fmt.Fprintf(out, "%s (visited)\n", name)
	default:
		fmt.Fprintln(out, name)
	}
	return nil
}

func parseCoordinate(latArg, lngArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude %q (must be between -90 and 90)", latArg)
	}
	lng, err := strconv.ParseFloat(lngArg, 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("invalid longitude %q (must be between -180 and 180)", lngArg)
	}
	return lat, lng, nil
}
