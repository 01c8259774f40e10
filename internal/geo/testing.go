package geo

// SetTestURL overrides the boundary dataset URL on a client for testing.
// This should only be used in tests.
func SetTestURL(c *BoundaryClient, url string) {
	c.url = url
}

// SetTestBaseURL overrides the RestCountries base URL on a client for
// testing. This should only be used in tests.
func SetTestBaseURL(c *MetadataClient, baseURL string) {
	c.baseURL = baseURL
}
