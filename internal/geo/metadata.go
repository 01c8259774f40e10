package geo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/evcraddock/been/internal/travel"
)

const defaultRestCountriesURL = "https://restcountries.com/v3.1"

const restCountriesFields = "name,cca2,cca3,flags,region,subregion,population,capital"

// Country is the metadata of one country.
type Country struct {
	Name       string `json:"name"`
	Official   string `json:"official"`
	CCA2       string `json:"cca2"`
	CCA3       string `json:"cca3"`
	Flag       string `json:"flag"`
	Region     string `json:"region"`
	Subregion  string `json:"subregion"`
	Population int64  `json:"population"`
	Capital    string `json:"capital,omitempty"`
}

// restCountry is one element of the RestCountries /all response.
type restCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2  string `json:"cca2"`
	CCA3  string `json:"cca3"`
	Flags struct {
		Emoji string `json:"emoji"`
	} `json:"flags"`
	Region     string   `json:"region"`
	Subregion  string   `json:"subregion"`
	Population int64    `json:"population"`
	Capital    []string `json:"capital"`
}

func (rc restCountry) country() Country {
	c := Country{
		Name:       rc.Name.Common,
		Official:   rc.Name.Official,
		CCA2:       rc.CCA2,
		CCA3:       rc.CCA3,
		Flag:       rc.Flags.Emoji,
		Region:     rc.Region,
		Subregion:  rc.Subregion,
		Population: rc.Population,
	}
	if c.Flag == "" {
		c.Flag = FlagEmoji(rc.CCA2)
	}
	if len(rc.Capital) > 0 {
		c.Capital = rc.Capital[0]
	}
	return c
}

// MetadataClient fetches country metadata from RestCountries.
type MetadataClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewMetadataClient creates a RestCountries client.
func NewMetadataClient() *MetadataClient {
	return &MetadataClient{
		httpClient: newHTTPClient(),
		baseURL:    defaultRestCountriesURL,
	}
}

// Fetch downloads every country and builds a Catalog.
func (c *MetadataClient) Fetch(ctx context.Context) (*Catalog, error) {
	var raw []restCountry
	url := c.baseURL + "/all?fields=" + restCountriesFields
	if err := getJSON(ctx, c.httpClient, url, &raw); err != nil {
		return nil, fmt.Errorf("fetching country metadata: %w", err)
	}

	countries := make([]Country, 0, len(raw))
	for _, rc := range raw {
		countries = append(countries, rc.country())
	}
	return NewCatalog(countries), nil
}

// Catalog resolves country display names to metadata.
type Catalog struct {
	countries []Country
	byName    map[string]int
	byCode    map[string]int
}

// NewCatalog indexes countries by lowercased common and official name and
// by two-letter code. The first country wins when names collide.
func NewCatalog(countries []Country) *Catalog {
	cat := &Catalog{
		countries: countries,
		byName:    make(map[string]int, len(countries)*2),
		byCode:    make(map[string]int, len(countries)),
	}
	for i, c := range countries {
		for _, name := range []string{c.Name, c.Official} {
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, ok := cat.byName[key]; !ok {
				cat.byName[key] = i
			}
		}
		if c.CCA2 != "" {
			code := strings.ToUpper(c.CCA2)
			if _, ok := cat.byCode[code]; !ok {
				cat.byCode[code] = i
			}
		}
	}
	return cat
}

// Len returns the number of countries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.countries)
}

// Find looks a country up by display name: first an exact, case-insensitive
// match on the common or official name, then the first country whose common
// name contains the query or is contained in it.
func (c *Catalog) Find(name string) (Country, bool) {
	if c == nil || name == "" {
		return Country{}, false
	}

	lower := strings.ToLower(name)
	if i, ok := c.byName[lower]; ok {
		return c.countries[i], true
	}

	for _, country := range c.countries {
		common := strings.ToLower(country.Name)
		if common == "" {
			continue
		}
		if strings.Contains(common, lower) || strings.Contains(lower, common) {
			return country, true
		}
	}
	return Country{}, false
}

// ByCode looks a country up by its two-letter code.
func (c *Catalog) ByCode(code string) (Country, bool) {
	if c == nil {
		return Country{}, false
	}
	i, ok := c.byCode[strings.ToUpper(code)]
	if !ok {
		return Country{}, false
	}
	return c.countries[i], true
}

// Lookup adapts Find to travel.LookupFunc.
func (c *Catalog) Lookup(name string) (travel.Country, bool) {
	country, ok := c.Find(name)
	if !ok {
		return travel.Country{}, false
	}
	return travel.Country{
		Name:      country.Name,
		Code:      country.CCA2,
		Flag:      country.Flag,
		Region:    country.Region,
		Subregion: country.Subregion,
	}, true
}

// Flag returns the flag glyph for a display name, or the white flag.
func (c *Catalog) Flag(name string) string {
	if country, ok := c.Find(name); ok && country.Flag != "" {
		return country.Flag
	}
	return travel.WhiteFlag
}

// FlagEmoji builds a flag from regional indicator symbols.
func FlagEmoji(cca2 string) string {
	if len(cca2) != 2 {
		return travel.WhiteFlag
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(cca2) {
		if r < 'A' || r > 'Z' {
			return travel.WhiteFlag
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
