package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetco2/auth"
	"github.com/kilianp07/fleetco2/core/factory"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

type webhookCapture struct {
	mu      sync.Mutex
	bodies  [][]byte
	headers []http.Header
}

func (c *webhookCapture) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, b)
		c.headers = append(c.headers, r.Header.Clone())
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func TestWebhookSink_RecordCalculation(t *testing.T) {
	capt := &webhookCapture{}
	srv := httptest.NewServer(capt.handler(http.StatusAccepted))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(WebhookConfig{URL: srv.URL, Headers: map[string]string{"X-Fleet": "north"}})
	require.NoError(t, err)
	require.NoError(t, sink.RecordCalculation(coremetrics.CalculationEvent{
		RequestID:    "r1",
		Outcome:      coremetrics.OutcomeSuccess,
		Vehicles:     4,
		TotalCO2Tons: 1.5,
		Time:         time.UnixMilli(1000),
	}))

	require.Len(t, capt.bodies, 1)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(capt.bodies[0], &msg))
	assert.Equal(t, "r1", msg["request_id"])
	assert.EqualValues(t, 4, msg["vehicles"])
	assert.Equal(t, "application/json", capt.headers[0].Get("Content-Type"))
	assert.Equal(t, "north", capt.headers[0].Get("X-Fleet"))
	assert.Empty(t, capt.headers[0].Get("Authorization"))
}

func TestWebhookSink_OAuth(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(idp.Close)
	capt := &webhookCapture{}
	srv := httptest.NewServer(capt.handler(http.StatusOK))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(WebhookConfig{
		URL:  srv.URL,
		Auth: auth.Conf{ClientID: "id", ClientSecret: "secret", AuthURL: idp.URL},
	})
	require.NoError(t, err)
	require.NoError(t, sink.RecordCalculation(coremetrics.CalculationEvent{Outcome: coremetrics.OutcomeSuccess}))
	require.Len(t, capt.headers, 1)
	assert.Equal(t, "Bearer tok", capt.headers[0].Get("Authorization"))
}

func TestWebhookSink_Errors(t *testing.T) {
	_, err := NewWebhookSink(WebhookConfig{})
	assert.Error(t, err)

	srv := httptest.NewServer((&webhookCapture{}).handler(http.StatusInternalServerError))
	t.Cleanup(srv.Close)
	sink, err := NewWebhookSink(WebhookConfig{URL: srv.URL})
	require.NoError(t, err)
	assert.ErrorContains(t, sink.RecordCalculation(coremetrics.CalculationEvent{}), "unexpected status 500")
}

func TestWebhookSink_FromFactory(t *testing.T) {
	capt := &webhookCapture{}
	srv := httptest.NewServer(capt.handler(http.StatusOK))
	t.Cleanup(srv.Close)
	sink, err := coremetrics.NewSink([]factory.ModuleConfig{{
		Type: "webhook",
		Conf: map[string]any{"url": srv.URL, "timeout": "2s"},
	}})
	require.NoError(t, err)
	ws, ok := sink.(*WebhookSink)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, ws.client.Timeout)
	require.NoError(t, sink.RecordCalculation(coremetrics.CalculationEvent{}))
	assert.Len(t, capt.bodies, 1)
}
