package emissions

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// FuelBreakdown aggregates the vehicle results sharing a fuel type.
type FuelBreakdown struct {
	FuelType       string  `json:"fuel_type"`
	Vehicles       int     `json:"vehicles"`
	TotalFuel      float64 `json:"total_fuel"`
	CO2Tons        float64 `json:"co2_tons"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// BreakdownByFuel groups res.VehicleResults by lowercased fuel type. Groups
// appear in the order their fuel type is first seen.
func BreakdownByFuel(res *Result) []FuelBreakdown {
	if res == nil {
		return nil
	}
	type group struct {
		vehicles int
		fuel     []float64
		tons     []float64
	}
	var order []string
	groups := map[string]*group{}
	for _, r := range res.VehicleResults {
		key := strings.ToLower(r.FuelType)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.vehicles += r.Count
		g.fuel = append(g.fuel, r.TotalFuel)
		g.tons = append(g.tons, r.CO2Tons)
	}

	out := make([]FuelBreakdown, 0, len(order))
	for _, key := range order {
		g := groups[key]
		b := FuelBreakdown{
			FuelType:  key,
			Vehicles:  g.vehicles,
			TotalFuel: floats.Sum(g.fuel),
			CO2Tons:   floats.Sum(g.tons),
		}
		if res.TotalCO2Tons != 0 {
			b.PercentOfTotal = b.CO2Tons / res.TotalCO2Tons * 100
		}
		out = append(out, b)
	}
	return out
}
