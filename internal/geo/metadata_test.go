package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/been/internal/travel"
)

const testRestCountries = `[
	{"name":{"common":"Japan","official":"Japan"},"cca2":"JP","cca3":"JPN","flags":{"png":"x"},"region":"Asia","subregion":"Eastern Asia","population":125000000,"capital":["Tokyo"]},
	{"name":{"common":"United States","official":"United States of America"},"cca2":"US","cca3":"USA","flags":{},"region":"Americas","subregion":"North America","population":331000000,"capital":["Washington, D.C."]},
	{"name":{"common":"Niger","official":"Republic of the Niger"},"cca2":"NE","cca3":"NER","flags":{},"region":"Africa","subregion":"Western Africa","population":24000000,"capital":["Niamey"]},
	{"name":{"common":"Nigeria","official":"Federal Republic of Nigeria"},"cca2":"NG","cca3":"NGA","flags":{},"region":"Africa","subregion":"Western Africa","population":206000000,"capital":["Abuja"]},
	{"name":{"common":"Antarctica","official":"Antarctica"},"cca2":"AQ","cca3":"ATA","flags":{},"region":"Antarctic","subregion":"","population":1000,"capital":[]}
]`

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all", r.URL.Path)
		assert.Equal(t, restCountriesFields, r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(testRestCountries))
	}))
	t.Cleanup(srv.Close)

	c := NewMetadataClient()
	SetTestBaseURL(c, srv.URL)

	cat, err := c.Fetch(context.Background())
	require.NoError(t, err)
	return cat
}

func TestCatalogFetch(t *testing.T) {
	cat := testCatalog(t)
	assert.Equal(t, 5, cat.Len())

	jp, ok := cat.ByCode("jp")
	require.True(t, ok)
	assert.Equal(t, "Tokyo", jp.Capital)
	assert.Equal(t, "🇯🇵", jp.Flag)
	assert.Equal(t, int64(125000000), jp.Population)

	aq, ok := cat.ByCode("AQ")
	require.True(t, ok)
	assert.Empty(t, aq.Capital)
}

func TestCatalogFind(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"Japan", "Japan", true},
		{"JAPAN", "Japan", true},
		{"United States of America", "United States", true},
		{"Federal Republic of Nigeria", "Nigeria", true},
		// Substring fallback: the first country in dataset order wins.
		{"Nige", "Niger", true},
		{"Republic of Nigeria (north)", "Niger", true},
		{"Atlantis", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := cat.Find(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestCatalogLookup(t *testing.T) {
	cat := testCatalog(t)

	c, ok := cat.Lookup("United States of America")
	require.True(t, ok)
	assert.Equal(t, travel.Country{
		Name:      "United States",
		Code:      "US",
		Flag:      "🇺🇸",
		Region:    "Americas",
		Subregion: "North America",
	}, c)

	assert.Equal(t, travel.WhiteFlag, cat.Flag("Atlantis"))
}

func TestNilCatalog(t *testing.T) {
	var cat *Catalog
	_, ok := cat.Find("Japan")
	assert.False(t, ok)
	assert.Equal(t, travel.WhiteFlag, cat.Flag("Japan"))
}

func TestFlagEmoji(t *testing.T) {
	assert.Equal(t, "🇫🇷", FlagEmoji("FR"))
	assert.Equal(t, "🇫🇷", FlagEmoji("fr"))
	assert.Equal(t, travel.WhiteFlag, FlagEmoji(""))
	assert.Equal(t, travel.WhiteFlag, FlagEmoji("F1"))
	assert.Equal(t, travel.WhiteFlag, FlagEmoji("FRA"))
}

func TestLoaderDegradesIndependently(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer broken.Close()
	meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testRestCountries))
	}))
	defer meta.Close()

	l := NewLoader(nil)
	SetTestURL(l.Boundaries, broken.URL)
	SetTestBaseURL(l.Metadata, meta.URL)

	ref := l.Load(context.Background())

	assert.Nil(t, ref.Boundaries)
	require.NotNil(t, ref.Catalog)
	assert.Equal(t, 5, ref.Catalog.Len())
}
