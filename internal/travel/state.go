package travel

import "time"

// State is the travel state for one user on one device.
// It is not safe for concurrent use; the tracker serializes access.
type State struct {
	countries *nameSet
	cities    map[string]*nameSet
	cityKeys  *nameSet
	recent    []Visit
}

// New returns an empty State.
func New() *State {
	return &State{
		countries: newNameSet(),
		cities:    make(map[string]*nameSet),
		cityKeys:  newNameSet(),
	}
}

// Visited reports whether the country is marked visited.
func (s *State) Visited(country string) bool {
	return s.countries.has(country)
}

// MarkCountry marks a country visited and records it at the front of the
// recent log. It returns false without changing anything when the country
// is already visited.
func (s *State) MarkCountry(name string, now time.Time) bool {
	if !s.countries.add(name) {
		return false
	}

	recent := make([]Visit, 0, len(s.recent)+1)
	recent = append(recent, NewVisit(name, now))
	recent = append(recent, s.recent...)
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	s.recent = recent
	return true
}

// UnmarkCountry removes a country, its cities and every recent entry with
// its name. It returns whether the country was visited.
func (s *State) UnmarkCountry(name string) bool {
	removed := s.countries.remove(name)

	delete(s.cities, name)
	s.cityKeys.remove(name)

	kept := s.recent[:0]
	for _, v := range s.recent {
		if v.Name != name {
			kept = append(kept, v)
		}
	}
	s.recent = kept
	return removed
}

// ToggleCity flips a city's visited flag and returns the new value.
// The country gets a city entry even if it is not itself marked visited.
func (s *State) ToggleCity(country, city string) bool {
	set := s.citySet(country)
	if set.has(city) {
		set.remove(city)
		return false
	}
	set.add(city)
	return true
}

func (s *State) citySet(country string) *nameSet {
	set, ok := s.cities[country]
	if !ok {
		set = newNameSet()
		s.cities[country] = set
		s.cityKeys.add(country)
	}
	return set
}

// Reset clears everything.
func (s *State) Reset() {
	s.countries = newNameSet()
	s.cities = make(map[string]*nameSet)
	s.cityKeys = newNameSet()
	s.recent = nil
}

// Empty reports whether nothing is recorded.
func (s *State) Empty() bool {
	return s.countries.len() == 0 && len(s.cities) == 0 && len(s.recent) == 0
}

// CountryNames returns visited countries in the order they were marked.
func (s *State) CountryNames() []string {
	return s.countries.values()
}

// CountryCount returns the number of visited countries.
func (s *State) CountryCount() int {
	return s.countries.len()
}

// CityCount returns the number of visited cities across all countries.
func (s *State) CityCount() int {
	n := 0
	for _, set := range s.cities {
		n += set.len()
	}
	return n
}

// HasCityEntry reports whether the country has a city index entry,
// which may be empty.
func (s *State) HasCityEntry(country string) bool {
	_, ok := s.cities[country]
	return ok
}

// CitiesOf returns the visited cities of a country.
func (s *State) CitiesOf(country string) []string {
	set, ok := s.cities[country]
	if !ok {
		return nil
	}
	return set.values()
}

// HasCity reports whether a city is marked visited.
func (s *State) HasCity(country, city string) bool {
	set, ok := s.cities[country]
	return ok && set.has(city)
}

// Recent returns the recent-visit log, most recent first.
func (s *State) Recent() []Visit {
	out := make([]Visit, len(s.recent))
	copy(out, s.recent)
	return out
}
