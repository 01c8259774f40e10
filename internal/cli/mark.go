package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// changeResult is the JSON shape of a travel mutation.
type changeResult struct {
	Country string   `json:"country"`
	City    string   `json:"city,omitempty"`
	Changed bool     `json:"changed"`
	Visited bool     `json:"visited"`
	Cities  []string `json:"cities,omitempty"`
	Sync    string   `json:"sync"`
}

func newMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <country>",
		Short: "Mark a country as visited",
		Long:  "Mark a country as visited. Marking a country that is already visited changes nothing and shows its cities instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, args[0])
		},
	}
}

func runMark(cmd *cobra.Command, country string) error {
	country, err := requireName("country", country)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.MarkCountry(cmd.Context(), country)
	if err != nil {
		return err
	}
	a.report(res)

	visitedCities := a.tracker.CitiesOf(country)
	if isJSON() {
		return printJSON(a.out, changeResult{
			Country: country,
			Changed: res.Changed,
			Visited: true,
			Cities:  visitedCities,
			Sync:    res.Outcome.String(),
		})
	}

	if res.Changed {
		fmt.Fprintf(a.out, "✓ Marked %s as visited.\n", country)
		return nil
	}

	fmt.Fprintf(a.out, "%s is already marked as visited.\n", country)
	if len(visitedCities) > 0 {
		fmt.Fprintf(a.out, "Cities: %s\n", strings.Join(visitedCities, ", "))
	}
	fmt.Fprintf(a.out, "Run 'been cities %q' to manage its cities.\n", country)
	return nil
}

func newUnmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmark <country>",
		Short: "Remove a country from your visited list",
		Long:  "Remove a country, its cities and its recent visits from your visited list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnmark(cmd, args[0])
		},
	}
}

func runUnmark(cmd *cobra.Command, country string) error {
	country, err := requireName("country", country)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.UnmarkCountry(cmd.Context(), country)
	if err != nil {
		return err
	}
	a.report(res)

	if isJSON() {
		return printJSON(a.out, changeResult{
			Country: country,
			Changed: res.Changed,
			Sync:    res.Outcome.String(),
		})
	}

	if res.Changed {
		fmt.Fprintf(a.out, "✓ Removed %s.\n", country)
	} else {
		fmt.Fprintf(a.out, "%s was not marked as visited.\n", country)
	}
	return nil
}

func newCityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "city <country> <city>",
		Short: "Toggle a visited city",
		Long:  "Mark a city as visited, or unmark it if it already is. The country does not have to be marked.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCity(cmd, args[0], args[1])
		},
	}
}

func runCity(cmd *cobra.Command, country, city string) error {
	country, err := requireName("country", country)
	if err != nil {
		return err
	}
	city, err = requireName("city", city)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	visited, res, err := a.tracker.ToggleCity(cmd.Context(), country, city)
	if err != nil {
		return err
	}
	a.report(res)

	if isJSON() {
		return printJSON(a.out, changeResult{
			Country: country,
			City:    city,
			Changed: res.Changed,
			Visited: visited,
			Cities:  a.tracker.CitiesOf(country),
			Sync:    res.Outcome.String(),
		})
	}

	if visited {
		fmt.Fprintf(a.out, "✓ Marked %s, %s as visited.\n", city, country)
	} else {
		fmt.Fprintf(a.out, "✓ Removed %s, %s.\n", city, country)
	}
	return nil
}

func requireName(what, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%s name is required", what)
	}
	return name, nil
}
