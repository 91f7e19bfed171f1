package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/infra/logger"
)

// InfluxSink writes calculation summaries to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCalculation writes one emissions_calculation point plus one
// fuel_consumption point per fuel type, sorted by fuel type.
func (s *InfluxSink) RecordCalculation(ev coremetrics.CalculationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := []*write.Point{
		write.NewPointWithMeasurement("emissions_calculation").
			AddTag("outcome", string(ev.Outcome)).
			AddTag("source", ev.Source).
			AddField("records", ev.Records).
			AddField("vehicles", ev.Vehicles).
			AddField("total_co2_tons", round6(ev.TotalCO2Tons)).
			AddField("projected_co2_tons", round6(ev.ProjectedCO2Tons)).
			AddField("years_ahead", ev.YearsAhead).
			AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
			SetTime(ev.Time),
	}
	fuels := make([]string, 0, len(ev.LitersByFuel))
	for f := range ev.LitersByFuel {
		fuels = append(fuels, f)
	}
	sort.Strings(fuels)
	for _, f := range fuels {
		points = append(points, write.NewPointWithMeasurement("fuel_consumption").
			AddTag("fuel_type", f).
			AddField("liters", round3(ev.LitersByFuel[f])).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
