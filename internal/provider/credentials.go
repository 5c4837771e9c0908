package provider

// Credentials are handed to an adapter for one call and never stored by it.
type Credentials struct {
	AccessToken string
	// BaseURL is required by the course provider, where each institution has its own host.
	BaseURL string
}
