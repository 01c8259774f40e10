package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/travel"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printItems prints the visited list as a formatted table.
func printItems(out io.Writer, items []travel.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "Nothing visited yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "\tNAME\tTYPE\tDETAIL"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	countries, cityCount := 0, 0
	for _, it := range items {
		detail := it.Region
		if it.Type == travel.ItemCountry {
			countries++
			if it.CitiesCount > 0 {
				detail = strings.TrimSpace(fmt.Sprintf("%s %s", detail, plural(it.CitiesCount, "city", "cities")))
			}
		} else {
			cityCount++
			detail = it.Country
		}
		if detail == "" {
			detail = "-"
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			it.Flag, truncate(it.Name, 40), it.Type, detail); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %s, %s\n", plural(countries, "country", "countries"), plural(cityCount, "city", "cities"))
	return nil
}

// printStats prints the statistics view.
func printStats(out io.Writer, st travel.Stats) {
	fmt.Fprintf(out, "Countries:  %d (%s of the world)\n", st.Countries, st.Percentage)
	fmt.Fprintf(out, "Cities:     %d\n", st.Cities)

	fmt.Fprintln(out, "\nContinents")
	for _, c := range st.Continents {
		fmt.Fprintf(out, "  %-10s %d\n", c.Name, c.Count)
	}

	if len(st.Regions) > 0 {
		fmt.Fprintln(out, "\nTop regions")
		for _, r := range st.Regions {
			fmt.Fprintf(out, "  %-26s %d\n", r.Name, r.Count)
		}
	}

	if len(st.Recent) > 0 {
		fmt.Fprintln(out, "\nRecent")
		for _, r := range st.Recent {
			fmt.Fprintf(out, "  %s %s  %s\n", r.Flag, r.Name, formatVisitDate(r.Date))
		}
	}
}

// printCities prints a city directory listing, marking visited cities.
func printCities(out io.Writer, country string, list []cities.City, visited map[string]bool) {
	if len(list) == 0 {
		fmt.Fprintf(out, "No cities found for %s.\n", country)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range list {
		mark := " "
		if visited[c.Name] {
			mark = "✓"
		}
		admin := c.AdminName
		if admin == "" {
			admin = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, c.Name, admin, formatPopulation(c.Population))
	}
	_ = w.Flush()
}

// formatVisitDate trims a recent-visit timestamp to its date.
func formatVisitDate(date string) string {
	if i := strings.IndexByte(date, 'T'); i > 0 {
		return date[:i]
	}
	return date
}

// formatPopulation formats a population with thousands separators, or "-"
// when unknown.
func formatPopulation(n int64) string {
	if n <= 0 {
		return "-"
	}
	s := fmt.Sprintf("%d", n)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
