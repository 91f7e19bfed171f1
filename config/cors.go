package config

import (
	"fmt"
	"slices"
)

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int `json:"max_age"`
}

// SetDefaults allows every origin with a one day preflight cache.
func (c *CORSConfig) SetDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 86400
	}
}

// Validate rejects credentials combined with a wildcard origin.
func (c CORSConfig) Validate() error {
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("cannot enable credentials with wildcard origin (*)")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age must not be negative")
	}
	return nil
}
