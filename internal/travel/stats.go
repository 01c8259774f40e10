package travel

import (
	"fmt"
	"sort"
)

// Continents lists the regions counted in the continent breakdown.
var Continents = []string{"Africa", "Americas", "Asia", "Europe", "Oceania"}

const (
	maxRegions      = 6
	maxRecentInStat = 5
)

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RecentItem is a recent visit decorated with its flag.
type RecentItem struct {
	Visit
	Flag string `json:"flag"`
}

// Stats is the statistics view of a State.
type Stats struct {
	Countries  int          `json:"countries"`
	Cities     int          `json:"cities"`
	Percentage string       `json:"percentage"`
	Continents []Count      `json:"continents"`
	Regions    []Count      `json:"regions"`
	Recent     []RecentItem `json:"recent"`
}

// Percentage formats count as a share of all countries with one decimal.
func Percentage(count int) string {
	return fmt.Sprintf("%.1f%%", float64(count)/TotalCountries*100)
}

// ComputeStats aggregates s. lookup may be nil, in which case continents
// and regions are all zero.
func ComputeStats(s *State, lookup LookupFunc) Stats {
	if lookup == nil {
		lookup = noLookup
	}

	st := Stats{
		Countries:  s.CountryCount(),
		Cities:     s.CityCount(),
		Percentage: Percentage(s.CountryCount()),
	}

	continents := make(map[string]int, len(Continents))
	for _, c := range Continents {
		continents[c] = 0
	}
	regions := make(map[string]int)
	var regionOrder []string

	for _, name := range s.CountryNames() {
		c, ok := lookup(name)
		if !ok {
			continue
		}
		if _, known := continents[c.Region]; known {
			continents[c.Region]++
		}
		if c.Subregion != "" {
			if _, seen := regions[c.Subregion]; !seen {
				regionOrder = append(regionOrder, c.Subregion)
			}
			regions[c.Subregion]++
		}
	}

	for _, name := range Continents {
		st.Continents = append(st.Continents, Count{Name: name, Count: continents[name]})
	}
	sort.SliceStable(st.Continents, func(i, j int) bool {
		return st.Continents[i].Count > st.Continents[j].Count
	})

	st.Regions = []Count{}
	for _, name := range regionOrder {
		st.Regions = append(st.Regions, Count{Name: name, Count: regions[name]})
	}
	sort.SliceStable(st.Regions, func(i, j int) bool {
		return st.Regions[i].Count > st.Regions[j].Count
	})
	if len(st.Regions) > maxRegions {
		st.Regions = st.Regions[:maxRegions]
	}

	st.Recent = []RecentItem{}
	for i, v := range s.recent {
		if i == maxRecentInStat {
			break
		}
		st.Recent = append(st.Recent, RecentItem{Visit: v, Flag: flagFor(lookup, v.Name)})
	}

	return st
}

func noLookup(string) (Country, bool) {
	return Country{}, false
}

func flagFor(lookup LookupFunc, name string) string {
	if c, ok := lookup(name); ok && c.Flag != "" {
		return c.Flag
	}
	return WhiteFlag
}
