// Package travel holds the in-memory travel state: visited countries,
// visited cities per country and the recent-visit log, plus the read
// projections the CLI renders from it.
package travel

import "time"

const (
	// MaxRecent caps the recent-visit log.
	MaxRecent = 10

	// TotalCountries is the denominator for the world percentage.
	TotalCountries = 195

	// DateLayout is the UTC timestamp format stored in recent visits.
	DateLayout = "2006-01-02T15:04:05.000Z"

	// WhiteFlag is shown when a country has no metadata.
	WhiteFlag = "\U0001F3F3️"
)

// Visit is one entry of the recent-visit log.
type Visit struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// NewVisit stamps a visit for name at t.
func NewVisit(name string, t time.Time) Visit {
	return Visit{Name: name, Date: t.UTC().Format(DateLayout)}
}

// Country is the display metadata joined onto a visited country name.
type Country struct {
	Name      string
	Code      string
	Flag      string
	Region    string
	Subregion string
}

// LookupFunc resolves a country display name to its metadata.
type LookupFunc func(name string) (Country, bool)

// nameSet is a set of strings that remembers insertion order.
type nameSet struct {
	order []string
	index map[string]struct{}
}

func newNameSet() *nameSet {
	return &nameSet{index: make(map[string]struct{})}
}

func (s *nameSet) has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *nameSet) add(name string) bool {
	if s.has(name) {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *nameSet) remove(name string) bool {
	if !s.has(name) {
		return false
	}
	delete(s.index, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *nameSet) len() int {
	return len(s.order)
}

func (s *nameSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
