package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetco2/config"
	"github.com/kilianp07/fleetco2/core/factory"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

type recordingSink struct {
	mu     sync.Mutex
	events []coremetrics.CalculationEvent
}

func (s *recordingSink) RecordCalculation(ev coremetrics.CalculationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var testSink = &recordingSink{}

func init() {
	_ = coremetrics.RegisterSink("apptest", func(map[string]any) (coremetrics.Sink, error) {
		return testSink, nil
	})
}

const body = `{"vehicles":[{"vehicle_type":"car","count":2,"fuel_type":"petrol","liters_per_vehicle":10}],"location":"X","year":2025}`

func TestNew_Defaults(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/emissions", strings.NewReader(body))
	req.Header.Set("Origin", "https://ui.example")
	svc.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_UnknownSink(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "does-not-exist"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestService_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	codes := make([]int, 0, 2)
	for range 2 {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		svc.Handler().ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestService_ServeForwardsEvents(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "apptest"}}
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, ln) }()

	before := testSink.len()
	resp, err := http.Post("http://"+ln.Addr().String()+"/api/emissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return testSink.len() > before }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	testSink.mu.Lock()
	ev := testSink.events[len(testSink.events)-1]
	testSink.mu.Unlock()
	assert.Equal(t, coremetrics.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, "http", ev.Source)
	assert.NotEmpty(t, ev.RequestID)
	assert.Equal(t, 2, ev.Vehicles)
}

func TestService_MCPToolCallPublishes(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	sub := svc.bus.Subscribe()
	srv := svc.MCPServer()
	resp := srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"calculate_emissions","arguments":`+body+`}}`))
	require.NotNil(t, resp)

	select {
	case ev := <-sub:
		assert.Equal(t, "mcp", ev.Source)
		assert.Equal(t, coremetrics.OutcomeSuccess, ev.Outcome)
		assert.Equal(t, 2, ev.Vehicles)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestNew_WithTracingEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Tracing.Endpoint = "127.0.0.1:4317"
	cfg.Tracing.Insecure = true
	svc, err := New(cfg)
	require.NoError(t, err)
	// No span was exported, so closing does not need a collector.
	assert.NoError(t, svc.Close())
}
