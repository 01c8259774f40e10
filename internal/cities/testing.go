package cities

// SetTestURLs overrides the source URLs on a directory for testing.
// This should only be used in tests.
func SetTestURLs(d *Directory, geoNamesURL, bulkURL string) {
	if geoNamesURL != "" {
		d.geoNamesURL = geoNamesURL
	}
	if bulkURL != "" {
		d.bulkURL = bulkURL
	}
}
