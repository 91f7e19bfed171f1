package scenarios

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gonum.org/v1/gonum/floats/scalar"

	apiemissions "github.com/kilianp07/fleetco2/api/emissions"
	"github.com/kilianp07/fleetco2/api/middleware"
	"github.com/kilianp07/fleetco2/core/emissions"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/infra/logger"
	"github.com/kilianp07/fleetco2/infra/metrics"
	"github.com/kilianp07/fleetco2/internal/eventbus"
)

const tolerance = 1e-9

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.NewTyped[coremetrics.CalculationEvent]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := metrics.StartEventCollector(ctx, bus, sink, logger.NopLogger{}, nil)

	calc := emissions.NewCalculator(emissions.DefaultFactors())
	mux := http.NewServeMux()
	apiemissions.Register(mux, apiemissions.NewHandler(calc, bus, logger.NopLogger{}, 0))
	h := middleware.Chain(mux, middleware.RequestID)

	body, err := json.Marshal(sc.Request)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/emissions", bytes.NewReader(body)))

	if rr.Code != sc.Expected.Status {
		t.Fatalf("scenario %s expected status %d, got %d: %s", sc.Name, sc.Expected.Status, rr.Code, rr.Body.String())
	}
	if rr.Code == http.StatusOK {
		var res emissions.Result
		if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		checkResult(t, sc, &res)
	} else if sc.Expected.FuelType != "" {
		var e map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if e["fuel_type"] != sc.Expected.FuelType {
			t.Errorf("scenario %s expected fuel_type %q, got %q", sc.Name, sc.Expected.FuelType, e["fuel_type"])
		}
	}

	bus.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	if sc.Expected.Outcome != "" {
		if got := counterValue(t, reg, sc.Expected.Outcome); got != 1 {
			t.Errorf("scenario %s expected one %s calculation, got %v", sc.Name, sc.Expected.Outcome, got)
		}
	}
}

func checkResult(t *testing.T, sc *Scenario, res *emissions.Result) {
	t.Helper()
	exp := sc.Expected
	if len(res.VehicleResults) != exp.Results {
		t.Errorf("scenario %s expected %d results, got %d", sc.Name, exp.Results, len(res.VehicleResults))
	}
	if !near(res.TotalCO2Tons, exp.TotalCO2Tons) {
		t.Errorf("scenario %s expected total %v, got %v", sc.Name, exp.TotalCO2Tons, res.TotalCO2Tons)
	}
	if !near(res.ProjectedCO2Tons, exp.ProjectedCO2Tons) {
		t.Errorf("scenario %s expected projection %v, got %v", sc.Name, exp.ProjectedCO2Tons, res.ProjectedCO2Tons)
	}
	if res.Location != sc.Request.Location || res.Year != sc.Request.Year {
		t.Errorf("scenario %s did not echo location/year", sc.Name)
	}
}

func near(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, tolerance, tolerance)
}

func counterValue(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != "emissions_calculations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "outcome") == outcome {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
