package mcptools

import (
	"context"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreemissions "github.com/kilianp07/fleetco2/core/emissions"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/infra/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []coremetrics.CalculationEvent
}

func (p *recordingPublisher) Publish(ev coremetrics.CalculationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func newTools(pub *recordingPublisher) *Tools {
	calc := coreemissions.NewCalculator(coreemissions.DefaultFactors())
	if pub == nil {
		return New(calc, nil, logger.NopLogger{})
	}
	return New(calc, pub, logger.NopLogger{})
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func TestHandleCalculate(t *testing.T) {
	pub := &recordingPublisher{}
	res, err := newTools(pub).HandleCalculate(context.Background(), callRequest(CalculateToolName, map[string]any{
		"vehicles": []any{
			map[string]any{"vehicle_type": "truck", "count": 1, "fuel_type": "diesel", "liters_per_vehicle": 100},
		},
		"location": "Nantes",
		"year":     2025,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out coreemissions.Result
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "Nantes", out.Location)
	assert.InDelta(t, 0.26893, out.TotalCO2Tons, 1e-9)
	assert.InDelta(t, out.TotalCO2Tons, out.ProjectedCO2Tons, 1e-12)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventSource, pub.events[0].Source)
	assert.Equal(t, coremetrics.OutcomeSuccess, pub.events[0].Outcome)
	assert.NotEmpty(t, pub.events[0].RequestID)
}

func TestHandleCalculate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		contain string
		outcome coremetrics.Outcome
	}{
		{
			name: "unknown fuel",
			args: map[string]any{
				"vehicles": []any{map[string]any{"vehicle_type": "bus", "count": 1, "fuel_type": "hydrogen", "liters_per_vehicle": 1}},
				"year":     2025,
			},
			contain: "hydrogen",
			outcome: coremetrics.OutcomeInvalid,
		},
		{
			name: "negative count",
			args: map[string]any{
				"vehicles": []any{map[string]any{"vehicle_type": "bus", "count": -1, "fuel_type": "diesel", "liters_per_vehicle": 1}},
				"year":     2025,
			},
			contain: "count",
			outcome: coremetrics.OutcomeInvalid,
		},
		{
			name: "overflowing year",
			args: map[string]any{
				"vehicles": []any{map[string]any{"vehicle_type": "bus", "count": 1, "fuel_type": "diesel", "liters_per_vehicle": 1}},
				"year":     1000000,
			},
			contain: "overflows",
			outcome: coremetrics.OutcomeInvalid,
		},
		{
			name:    "unknown argument",
			args:    map[string]any{"vehicles": []any{}, "year": 2025, "fleet": "x"},
			contain: "invalid arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			res, err := newTools(pub).HandleCalculate(context.Background(), callRequest(CalculateToolName, tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.contain)
			if tt.outcome == "" {
				assert.Empty(t, pub.events)
				return
			}
			require.Len(t, pub.events, 1)
			assert.Equal(t, tt.outcome, pub.events[0].Outcome)
		})
	}
}

func TestHandleFactors(t *testing.T) {
	res, err := newTools(nil).HandleFactors(context.Background(), callRequest(FactorsToolName, nil))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"factors":[{"fuel_type":"diesel","kg_co2_per_liter":2.6893},{"fuel_type":"petrol","kg_co2_per_liter":2.3477}]}`,
		resultText(t, res))
}

func TestNewServer_ListsTools(t *testing.T) {
	srv := NewServer(newTools(nil), "test")
	resp := srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), CalculateToolName)
	assert.Contains(t, string(b), FactorsToolName)
}
