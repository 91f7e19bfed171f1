package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/kilianp07/fleetco2/auth"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookConfig configures a WebhookSink.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Timeout time.Duration     `json:"timeout"`
	Headers map[string]string `json:"headers"`
	// Auth enables OAuth2 client credentials when AuthURL is set.
	Auth auth.Conf `json:"auth"`
}

// WebhookSink posts a JSON summary of each calculation to an HTTP endpoint.
type WebhookSink struct {
	url     string
	headers map[string]string
	client  *http.Client
	creds   *auth.ClientCred
}

// NewWebhookSink validates cfg and returns a sink.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook sink requires url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	s := &WebhookSink{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.Auth.Enabled() {
		s.creds = auth.NewClientCred(cfg.Auth)
	}
	return s, nil
}

// RecordCalculation posts ev. Any non-2xx answer is an error.
func (s *WebhookSink) RecordCalculation(ev coremetrics.CalculationEvent) error {
	payload, err := json.Marshal(newCalculationMessage(ev))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	if s.creds != nil {
		if err := s.creds.SetAuthHeader(req); err != nil {
			return fmt.Errorf("webhook auth: %w", err)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
	}
	return nil
}
