package metrics

import (
	"time"

	"github.com/goccy/go-json"

	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

// Publisher sends raw payloads to a message broker.
type Publisher interface {
	Publish(payload []byte) error
}

// MQTTSink publishes a JSON summary of each calculation.
type MQTTSink struct {
	pub Publisher
}

// NewMQTTSink wraps pub.
func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

type calculationMessage struct {
	RequestID        string             `json:"request_id,omitempty"`
	Source           string             `json:"source,omitempty"`
	Outcome          string             `json:"outcome"`
	Error            string             `json:"error,omitempty"`
	Records          int                `json:"records"`
	Vehicles         int                `json:"vehicles"`
	LitersByFuel     map[string]float64 `json:"liters_by_fuel,omitempty"`
	TotalCO2Tons     float64            `json:"total_co2_tons"`
	ProjectedCO2Tons float64            `json:"projected_co2_tons"`
	YearsAhead       int                `json:"years_ahead"`
	DurationMS       float64            `json:"duration_ms"`
	Timestamp        int64              `json:"timestamp"`
}

func newCalculationMessage(ev coremetrics.CalculationEvent) calculationMessage {
	return calculationMessage{
		RequestID:        ev.RequestID,
		Source:           ev.Source,
		Outcome:          string(ev.Outcome),
		Error:            ev.Error,
		Records:          ev.Records,
		Vehicles:         ev.Vehicles,
		LitersByFuel:     ev.LitersByFuel,
		TotalCO2Tons:     ev.TotalCO2Tons,
		ProjectedCO2Tons: ev.ProjectedCO2Tons,
		YearsAhead:       ev.YearsAhead,
		DurationMS:       round3(float64(ev.Duration) / float64(time.Millisecond)),
		Timestamp:        ev.Time.UnixMilli(),
	}
}

// RecordCalculation marshals ev and publishes it.
func (s *MQTTSink) RecordCalculation(ev coremetrics.CalculationEvent) error {
	payload, err := json.Marshal(newCalculationMessage(ev))
	if err != nil {
		return err
	}
	return s.pub.Publish(payload)
}

// Close closes the publisher when it supports it.
func (s *MQTTSink) Close() error {
	if c, ok := s.pub.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
