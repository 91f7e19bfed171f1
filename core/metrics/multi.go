package metrics

import (
	"errors"
	"io"
)

// MultiSink fans out calculation events to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCalculation forwards the event to every sink and joins their errors.
// A failing sink does not prevent the others from receiving the event.
func (m *MultiSink) RecordCalculation(ev CalculationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCalculation(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
