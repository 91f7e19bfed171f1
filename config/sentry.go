package config

import "errors"

// SentryConfig enables error reporting to Sentry when DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults names the environment "production" when a DSN is configured.
func (s *SentryConfig) SetDefaults() {
	if s.DSN != "" && s.Environment == "" {
		s.Environment = "production"
	}
}

// Validate rejects a sample rate outside [0, 1].
func (s SentryConfig) Validate() error {
	if s.TracesSampleRate < 0 || s.TracesSampleRate > 1 {
		return errors.New("traces_sample_rate must be within [0, 1]")
	}
	return nil
}
