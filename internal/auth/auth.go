// Package auth provides Elasticsearch authentication settings.
package auth

import "github.com/elastic/elastic-transport-go/v8/elastictransport"

// Credentials holds Elasticsearch API authentication credentials.
// APIKey takes precedence over basic auth when both are set.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// Configure copies the credentials onto a transport configuration.
func (c *Credentials) Configure(cfg *elastictransport.Config) {
	if c == nil || cfg == nil {
		return
	}
	if c.APIKey != "" {
		cfg.APIKey = c.APIKey
		return
	}
	cfg.Username = c.Username
	cfg.Password = c.Password
}

// Valid reports whether credentials are configured.
func (c *Credentials) Valid() bool {
	return c != nil && (c.APIKey != "" || c.Username != "")
}
