// Package scenarios runs YAML-described calculation scenarios through the
// HTTP API, the event bus and a Prometheus sink.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetco2/core/emissions"
)

// Expected describes the outcome a scenario must produce.
type Expected struct {
	Status           int     `yaml:"status"`
	TotalCO2Tons     float64 `yaml:"total_co2_tons"`
	ProjectedCO2Tons float64 `yaml:"projected_co2_tons"`
	Results          int     `yaml:"results"`
	// FuelType is the rejected fuel echoed in a 422 body.
	FuelType string `yaml:"fuel_type,omitempty"`
	Outcome  string `yaml:"outcome"`
}

type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Request     emissions.Request `yaml:"request"`
	Expected    Expected          `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name missing", path)
	}
	if sc.Expected.Status == 0 {
		sc.Expected.Status = 200
	}
	return &sc, nil
}
