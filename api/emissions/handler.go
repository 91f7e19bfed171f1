// Package emissions exposes the emissions calculator over HTTP.
package emissions

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kilianp07/fleetco2/api/middleware"
	coreemissions "github.com/kilianp07/fleetco2/core/emissions"
	"github.com/kilianp07/fleetco2/core/logger"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/infra/tracing"
)

// EventSource tags events published by the HTTP handler.
const EventSource = "http"

// Publisher receives one event per calculation attempt. Publish must not
// block.
type Publisher interface {
	Publish(ev coremetrics.CalculationEvent)
}

// Handler serves POST /api/emissions.
type Handler struct {
	calc    *coreemissions.Calculator
	events  Publisher
	log     logger.Logger
	maxBody int64
}

// NewHandler returns a Handler. A nil events publisher disables events and a
// non-positive maxBody disables the body limit.
func NewHandler(calc *coreemissions.Calculator, events Publisher, log logger.Logger, maxBody int64) *Handler {
	return &Handler{calc: calc, events: events, log: log, maxBody: maxBody}
}

type errorResponse struct {
	Error    string `json:"error"`
	FuelType string `json:"fuel_type,omitempty"`
	Field    string `json:"field,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	start := time.Now()
	body := r.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	var req coreemissions.Request
	if err := decodeRequest(body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		h.log.Debugf("decode emissions request: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ctx := r.Context()
	tracing.SetAttributes(ctx,
		attribute.Int("fleet.records", len(req.Vehicles)),
		attribute.Int("fleet.year", req.Year),
	)
	res, err := h.calculate(req)
	h.publish(r, req, res, err, time.Since(start))
	if err != nil {
		tracing.RecordError(ctx, err)
		writeCalcError(w, err)
		return
	}
	tracing.SetAttributes(ctx,
		attribute.Float64("fleet.total_co2_tons", res.TotalCO2Tons),
		attribute.Float64("fleet.projected_co2_tons", res.ProjectedCO2Tons),
	)
	writeJSON(w, http.StatusOK, res)
}

// decodeRequest reads exactly one JSON object from body.
func decodeRequest(body io.Reader, req *coreemissions.Request) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func (h *Handler) calculate(req coreemissions.Request) (*coreemissions.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return h.calc.Calculate(req)
}

func (h *Handler) publish(r *http.Request, req coreemissions.Request, res *coreemissions.Result, err error, d time.Duration) {
	if h.events == nil {
		return
	}
	ev := coremetrics.NewCalculationEvent(req, res, err)
	ev.RequestID = middleware.RequestIDFromContext(r.Context())
	ev.Source = EventSource
	ev.Duration = d
	h.events.Publish(ev)
}

func writeCalcError(w http.ResponseWriter, err error) {
	var unknown *coreemissions.UnknownFuelTypeError
	var invalid *coreemissions.InvalidRecordError
	var overflow *coreemissions.ProjectionOverflowError
	switch {
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), FuelType: unknown.FuelType})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: invalid.Field})
	case errors.As(err, &overflow):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: "year"})
	case errors.Is(err, coreemissions.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// NewFactorsHandler serves GET /api/emissions/factors.
func NewFactorsHandler(table coreemissions.FactorTable) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"factors": table.Entries()})
	})
}

// Register mounts the emissions routes on mux.
func Register(mux *http.ServeMux, h *Handler) {
	mux.Handle("/api/emissions", h)
	mux.Handle("/api/emissions/factors", NewFactorsHandler(h.calc.Factors()))
}

// writeJSON encodes v before writing the header so an encoding failure still
// yields a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse{Error: "internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
