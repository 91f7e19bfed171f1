package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

func TestInfluxSink_RecordCalculation(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer func() { _ = sink.Close() }()
	now := time.Now()
	ev := coremetrics.CalculationEvent{
		Outcome:          coremetrics.OutcomeSuccess,
		Source:           "http",
		Records:          2,
		Vehicles:         3,
		LitersByFuel:     map[string]float64{"petrol": 20, "diesel": 100},
		TotalCO2Tons:     0.315884,
		ProjectedCO2Tons: 0.319051,
		YearsAhead:       2,
		Duration:         1500 * time.Microsecond,
		Time:             now,
	}
	require.NoError(t, sink.RecordCalculation(ev))

	calc := write.NewPointWithMeasurement("emissions_calculation").
		AddTag("outcome", "success").
		AddTag("source", "http").
		AddField("records", 2).
		AddField("vehicles", 3).
		AddField("total_co2_tons", 0.315884).
		AddField("projected_co2_tons", 0.319051).
		AddField("years_ahead", 2).
		AddField("duration_ms", 1.5).
		SetTime(now)
	diesel := write.NewPointWithMeasurement("fuel_consumption").
		AddTag("fuel_type", "diesel").
		AddField("liters", 100.0).
		SetTime(now)
	petrol := write.NewPointWithMeasurement("fuel_consumption").
		AddTag("fuel_type", "petrol").
		AddField("liters", 20.0).
		SetTime(now)
	var expected []string
	for _, p := range []*write.Point{calc, diesel, petrol} {
		expected = append(expected, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, expected, strings.Split(strings.TrimSpace(body), "\n"))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
