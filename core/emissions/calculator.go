package emissions

import "math"

// Impact coefficients applied to a record's share of the fleet total.
const (
	OzoneImpactFactor   = 0.12
	ClimateImpactFactor = 0.08
	GlacierImpactFactor = 0.04
)

const kgPerTon = 1000.0

// Calculator computes emission results against a fixed factor table.
type Calculator struct {
	factors FactorTable
}

// NewCalculator returns a Calculator using the given factor table.
func NewCalculator(factors FactorTable) *Calculator {
	return &Calculator{factors: factors}
}

// Factors returns the table used by the calculator.
func (c *Calculator) Factors() FactorTable { return c.factors }

// Calculate computes per-record and aggregate emissions for req.
//
// Every fuel type must resolve in the factor table; the first unknown one
// aborts the calculation and no partial result is returned. Input values are
// not range-checked here, see Request.Validate. A projection that is not
// finite fails with ProjectionOverflowError.
func (c *Calculator) Calculate(req Request) (*Result, error) {
	results := make([]VehicleResult, 0, len(req.Vehicles))
	totalKg := 0.0
	for _, v := range req.Vehicles {
		factor, err := c.factors.Lookup(v.FuelType)
		if err != nil {
			return nil, err
		}
		fuel := v.TotalFuel()
		co2 := fuel * factor
		results = append(results, VehicleResult{
			VehicleType: v.VehicleType,
			FuelType:    v.FuelType,
			Count:       v.Count,
			TotalFuel:   fuel,
			CO2Kg:       co2,
		})
		totalKg += co2
	}

	totalTons := totalKg / kgPerTon
	for i := range results {
		r := &results[i]
		r.CO2Tons = r.CO2Kg / kgPerTon
		if totalTons == 0 {
			continue
		}
		r.PercentOfTotal = r.CO2Tons / totalTons * 100
		// Kept as co2 * coefficient / total for parity with the published
		// figures; it reduces to PercentOfTotal * coefficient.
		r.OzoneImpactPercent = r.CO2Tons * OzoneImpactFactor / totalTons * 100
		r.ClimateChangePercent = r.CO2Tons * ClimateImpactFactor / totalTons * 100
		r.GlacierMeltPercent = r.CO2Tons * GlacierImpactFactor / totalTons * 100
	}

	projected := Project(totalTons, req.Year)
	if math.IsInf(projected, 0) || math.IsNaN(projected) {
		return nil, &ProjectionOverflowError{Year: req.Year}
	}

	return &Result{
		Location:         req.Location,
		Year:             req.Year,
		VehicleResults:   results,
		TotalCO2Tons:     totalTons,
		ProjectedCO2Tons: projected,
	}, nil
}
