package config

import "errors"

// TracingConfig configures OpenTelemetry tracing. An empty Endpoint keeps the
// no-op tracer.
type TracingConfig struct {
	Endpoint    string  `json:"endpoint"`
	Insecure    bool    `json:"insecure"`
	ServiceName string  `json:"service_name"`
	SampleRatio float64 `json:"sample_ratio"`
	Environment string  `json:"environment"`
}

// SetDefaults fills the service name and sampling ratio.
func (t *TracingConfig) SetDefaults() {
	if t.ServiceName == "" {
		t.ServiceName = "fleetco2"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
	if t.Environment == "" {
		t.Environment = "development"
	}
}

// Validate rejects sampling ratios outside [0, 1].
func (t TracingConfig) Validate() error {
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return errors.New("sample_ratio must be within [0, 1]")
	}
	return nil
}
