package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

// PromSink records calculation events in Prometheus metrics.
type PromSink struct {
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	fuel         *prometheus.CounterVec
	co2          prometheus.Histogram
	vehicles     prometheus.Histogram
}

// NewPromSink registers calculation metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	calculations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emissions_calculations_total",
		Help: "Total number of emission calculations by outcome",
	}, []string{"outcome", "source"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emissions_calculation_duration_seconds",
		Help:    "Time spent computing one emissions result",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	fuel, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emissions_fuel_liters_total",
		Help: "Liters of fuel submitted in successful calculations",
	}, []string{"fuel_type"}))
	if err != nil {
		return nil, err
	}
	co2, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emissions_total_co2_tons",
		Help:    "Fleet total CO2 in tonnes per successful calculation",
		Buckets: prometheus.ExponentialBuckets(0.01, 10, 8),
	}))
	if err != nil {
		return nil, err
	}
	vehicles, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emissions_fleet_vehicles",
		Help:    "Number of vehicles per calculation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{calculations: calculations, duration: duration, fuel: fuel, co2: co2, vehicles: vehicles}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCalculation updates counters and histograms for ev.
func (s *PromSink) RecordCalculation(ev coremetrics.CalculationEvent) error {
	s.calculations.WithLabelValues(string(ev.Outcome), ev.Source).Inc()
	s.duration.WithLabelValues(string(ev.Outcome)).Observe(ev.Duration.Seconds())
	s.vehicles.Observe(float64(ev.Vehicles))
	if ev.Outcome != coremetrics.OutcomeSuccess {
		return nil
	}
	for fuel, liters := range ev.LitersByFuel {
		s.fuel.WithLabelValues(fuel).Add(liters)
	}
	s.co2.Observe(ev.TotalCO2Tons)
	return nil
}
