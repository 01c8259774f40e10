package travel

import "fmt"

// Filter selects what the list view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCountries Filter = "countries"
	FilterCities    Filter = "cities"
)

// ParseFilter validates a filter name. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCountries, FilterCities:
		return Filter(s), nil
	}
	return "", fmt.Errorf("invalid filter %q (must be all, countries or cities)", s)
}

// ItemType distinguishes list entries.
type ItemType string

const (
	ItemCountry ItemType = "country"
	ItemCity    ItemType = "city"
)

// Item is one row of the visited list.
type Item struct {
	Type        ItemType `json:"type"`
	Name        string   `json:"name"`
	Country     string   `json:"country,omitempty"`
	Code        string   `json:"code,omitempty"`
	Flag        string   `json:"flag"`
	Region      string   `json:"region,omitempty"`
	CitiesCount int      `json:"cities_count,omitempty"`
}

// Items lists visited countries and then visited cities.
func (s *State) Items(filter Filter, lookup LookupFunc) []Item {
	if lookup == nil {
		lookup = noLookup
	}

	items := []Item{}
	if filter == FilterAll || filter == FilterCountries {
		for _, name := range s.countries.values() {
			c, _ := lookup(name)
			items = append(items, Item{
				Type:        ItemCountry,
				Name:        name,
				Code:        c.Code,
				Flag:        flagFor(lookup, name),
				Region:      c.Region,
				CitiesCount: len(s.CitiesOf(name)),
			})
		}
	}

	if filter == FilterAll || filter == FilterCities {
		for _, country := range s.cityKeys.values() {
			c, _ := lookup(country)
			for _, city := range s.cities[country].values() {
				items = append(items, Item{
					Type:    ItemCity,
					Name:    city,
					Country: country,
					Code:    c.Code,
					Flag:    flagFor(lookup, country),
				})
			}
		}
	}

	return items
}
