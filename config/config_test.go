package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 86400, cfg.CORS.MaxAge)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Zero(t, cfg.Server.RateLimit.RequestsPerSecond)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "cfg.yaml", `
server:
  addr: ":9090"
  read_timeout: 3s
  rate_limit:
    requests_per_second: 5
cors:
  allowed_origins: ["https://fleet.example"]
  allow_credentials: true
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: prometheus
    - type: influx
      conf:
        url: http://localhost:8086
logging:
  level: debug
sentry:
  dsn: https://key@o0.ingest.sentry.io/1
  environment: staging
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 5.0, cfg.Server.RateLimit.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Server.RateLimit.Burst)
	assert.Equal(t, []string{"https://fleet.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, ":2112", cfg.Metrics.PrometheusAddr)
	require.Len(t, cfg.Metrics.Sinks, 2)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "influx", cfg.Metrics.Sinks[1].Type)
	assert.Equal(t, "http://localhost:8086", cfg.Metrics.Sinks[1].Conf["url"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "staging", cfg.Sentry.Environment)
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"server":{"addr":":7000"},"logging":{"level":"warn"}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	p := writeFile(t, "cfg.yaml", "server:\n  addr: \":9090\"\n")
	t.Setenv("FLEETCO2_SERVER__ADDR", ":6000")
	t.Setenv("FLEETCO2_LOGGING__LEVEL", "error")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.Addr)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("FLEETCO2_SERVER__WRITE_TIMEOUT", "2s")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "cfg.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging")
}

func TestCORSValidate(t *testing.T) {
	c := CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}
	assert.ErrorContains(t, c.Validate(), "wildcard")

	c = CORSConfig{AllowedOrigins: []string{"https://a.example"}, AllowCredentials: true}
	assert.NoError(t, c.Validate())

	c = CORSConfig{MaxAge: -1}
	assert.Error(t, c.Validate())
}

func TestServerValidate(t *testing.T) {
	s := ServerConfig{ReadTimeout: -time.Second}
	assert.Error(t, s.Validate())
	s = ServerConfig{RateLimit: RateLimitConfig{RequestsPerSecond: -1}}
	assert.Error(t, s.Validate())
	s = ServerConfig{}
	s.SetDefaults()
	assert.NoError(t, s.Validate())
}

func TestTracingDefaultsAndValidate(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, "fleetco2", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)

	cfg.Tracing.SampleRatio = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing")
}

func TestLoadTracingFromEnv(t *testing.T) {
	t.Setenv("FLEETCO2_TRACING__ENDPOINT", "otel:4317")
	t.Setenv("FLEETCO2_TRACING__SAMPLE_RATIO", "0.25")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "otel:4317", cfg.Tracing.Endpoint)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRatio, 1e-9)
}

func TestSentryDefaultsAndValidate(t *testing.T) {
	p := writeFile(t, "cfg.yaml", "sentry:\n  dsn: https://key@sentry.example/1\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Sentry.Environment)

	cfg.Sentry.TracesSampleRate = -0.1
	assert.ErrorContains(t, cfg.Validate(), "sentry")
}
