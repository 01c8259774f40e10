package travel

import "sort"

// Snapshot is the serialized form of a State, shared by the local store
// and the account API.
type Snapshot struct {
	Countries []string            `json:"countries"`
	Cities    map[string][]string `json:"cities"`
	Recent    []Visit             `json:"recent_visits"`
}

// EmptySnapshot returns a snapshot with non-nil collections so it
// serializes as [], {} and [].
func EmptySnapshot() Snapshot {
	return Snapshot{
		Countries: []string{},
		Cities:    map[string][]string{},
		Recent:    []Visit{},
	}
}

// Snapshot captures the current state.
func (s *State) Snapshot() Snapshot {
	snap := EmptySnapshot()
	snap.Countries = append(snap.Countries, s.countries.values()...)
	for _, country := range s.cityKeys.values() {
		snap.Cities[country] = s.cities[country].values()
	}
	snap.Recent = append(snap.Recent, s.recent...)
	return snap
}

// Restore replaces the state with the contents of snap.
// Duplicate names collapse and the recent log is capped.
func (s *State) Restore(snap Snapshot) {
	s.Reset()

	for _, name := range snap.Countries {
		s.countries.add(name)
	}

	countries := make([]string, 0, len(snap.Cities))
	for country := range snap.Cities {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	for _, country := range countries {
		set := s.citySet(country)
		for _, city := range snap.Cities[country] {
			set.add(city)
		}
	}

	recent := snap.Recent
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	s.recent = append([]Visit(nil), recent...)
}

// FromSnapshot builds a State from snap.
func FromSnapshot(snap Snapshot) *State {
	s := New()
	s.Restore(snap)
	return s
}
