package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/kilianp07/fleetco2/core/emissions"
)

// Outcome classifies how a calculation ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// CalculationEvent summarises one calculation. It carries aggregates only;
// request labels such as location or vehicle types are not included.
type CalculationEvent struct {
	RequestID        string
	Source           string
	Outcome          Outcome
	Error            string
	Records          int
	Vehicles         int
	LitersByFuel     map[string]float64
	TotalCO2Tons     float64
	ProjectedCO2Tons float64
	YearsAhead       int
	Duration         time.Duration
	Time             time.Time
}

// NewCalculationEvent builds the event for a finished calculation. res may be
// nil when err is set.
func NewCalculationEvent(req emissions.Request, res *emissions.Result, err error) CalculationEvent {
	ev := CalculationEvent{
		Outcome:      OutcomeSuccess,
		Records:      len(req.Vehicles),
		LitersByFuel: map[string]float64{},
		YearsAhead:   emissions.YearsAhead(req.Year),
		Time:         time.Now(),
	}
	for _, v := range req.Vehicles {
		ev.Vehicles += v.Count
	}
	if err != nil {
		ev.Outcome = OutcomeError
		if errors.Is(err, emissions.ErrValidation) {
			ev.Outcome = OutcomeInvalid
		}
		ev.Error = err.Error()
		return ev
	}
	if res != nil {
		for _, r := range res.VehicleResults {
			ev.LitersByFuel[strings.ToLower(r.FuelType)] += r.TotalFuel
		}
		ev.TotalCO2Tons = res.TotalCO2Tons
		ev.ProjectedCO2Tons = res.ProjectedCO2Tons
	}
	return ev
}

// Sink records calculation events for observability purposes.
type Sink interface {
	RecordCalculation(ev CalculationEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCalculation(CalculationEvent) error { return nil }
