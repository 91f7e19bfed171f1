package emissions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		year  int
		want  float64
	}{
		{name: "baseline year", total: 10, year: 2025, want: 10},
		{name: "past year", total: 10, year: 1990, want: 10},
		{name: "one year ahead", total: 10, year: 2026, want: 10.05},
		{name: "two years ahead", total: 10, year: 2027, want: 10.10025},
		{name: "zero total", total: 0, year: 2100, want: 0},
		{name: "zero total far ahead", total: 0, year: 1000000, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Project(tt.total, tt.year), 1e-9)
		})
	}
}

func TestProject_NoGrowthIsExact(t *testing.T) {
	for _, year := range []int{-5, 0, 2000, 2024, 2025} {
		assert.Equal(t, 0.046954, Project(0.046954, year))
	}
}

func TestYearsAhead(t *testing.T) {
	assert.Equal(t, 0, YearsAhead(2020))
	assert.Equal(t, 0, YearsAhead(BaselineYear))
	assert.Equal(t, 5, YearsAhead(2030))
}

func TestProject_OverflowIsInf(t *testing.T) {
	assert.True(t, math.IsInf(Project(1, 1000000), 1))
}
