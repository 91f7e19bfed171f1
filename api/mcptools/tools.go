// Package mcptools exposes the emissions calculator as Model Context Protocol
// tools served over stdio.
package mcptools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	apiemissions "github.com/kilianp07/fleetco2/api/emissions"
	coreemissions "github.com/kilianp07/fleetco2/core/emissions"
	"github.com/kilianp07/fleetco2/core/logger"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
)

const (
	// ServerName is announced during the MCP handshake.
	ServerName = "fleetco2"
	// EventSource tags events published by MCP tool calls.
	EventSource = "mcp"

	CalculateToolName = "calculate_emissions"
	FactorsToolName   = "list_emission_factors"
)

// Tools holds the MCP tool handlers.
type Tools struct {
	calc   *coreemissions.Calculator
	events apiemissions.Publisher
	log    logger.Logger
}

// New returns the tool set. A nil events publisher disables events.
func New(calc *coreemissions.Calculator, events apiemissions.Publisher, log logger.Logger) *Tools {
	return &Tools{calc: calc, events: events, log: log}
}

// CalculateTool describes calculate_emissions.
func CalculateTool() mcp.Tool {
	return mcp.NewTool(CalculateToolName,
		mcp.WithDescription("Calculate CO2 emissions of a vehicle fleet and project them to a target year"),
		mcp.WithArray("vehicles",
			mcp.Required(),
			mcp.Description("Vehicle records: objects with vehicle_type, count, fuel_type (petrol or diesel) and liters_per_vehicle"),
		),
		mcp.WithString("location",
			mcp.Description("Free-text location echoed in the result"),
		),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Target year for the projection"),
		),
	)
}

// FactorsTool describes list_emission_factors.
func FactorsTool() mcp.Tool {
	return mcp.NewTool(FactorsToolName,
		mcp.WithDescription("List the supported fuel types and their emission factors in kg CO2 per liter"),
	)
}

// HandleCalculate runs a calculation. Invalid input is reported as a tool
// error result, never as a protocol error.
func (t *Tools) HandleCalculate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError("invalid arguments"), nil
	}
	var in coreemissions.Request
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		t.log.Debugf("decode %s arguments: %v", CalculateToolName, err)
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	res, err := t.calculate(in)
	t.publish(in, res, err, time.Since(start))
	if err != nil {
		if errors.Is(err, coreemissions.ErrValidation) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t.log.Errorf("%s: %v", CalculateToolName, err)
		return mcp.NewToolResultError("internal error"), nil
	}
	return jsonResult(res)
}

// HandleFactors lists the factor table.
func (t *Tools) HandleFactors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"factors": t.calc.Factors().Entries()})
}

func (t *Tools) calculate(in coreemissions.Request) (*coreemissions.Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return t.calc.Calculate(in)
}

func (t *Tools) publish(in coreemissions.Request, res *coreemissions.Result, err error, d time.Duration) {
	if t.events == nil {
		return
	}
	ev := coremetrics.NewCalculationEvent(in, res, err)
	ev.RequestID = uuid.NewString()
	ev.Source = EventSource
	ev.Duration = d
	t.events.Publish(ev)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// NewServer builds an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(CalculateTool(), t.HandleCalculate)
	srv.AddTool(FactorsTool(), t.HandleFactors)
	return srv
}
