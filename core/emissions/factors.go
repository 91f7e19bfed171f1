package emissions

import (
	"sort"
	"strings"
)

// Emission factors in kg CO2 per liter.
const (
	PetrolFactor = 2.3477
	DieselFactor = 2.6893
)

// FactorTable maps lowercased fuel types to emission factors. The zero value
// is an empty table. A FactorTable is never modified after construction and
// is safe for concurrent use.
type FactorTable struct {
	factors map[string]float64
}

// NewFactorTable copies the given factors into a table, lowercasing keys.
func NewFactorTable(factors map[string]float64) FactorTable {
	m := make(map[string]float64, len(factors))
	for k, v := range factors {
		m[strings.ToLower(k)] = v
	}
	return FactorTable{factors: m}
}

// DefaultFactors returns the built-in petrol and diesel table.
func DefaultFactors() FactorTable {
	return NewFactorTable(map[string]float64{
		"petrol": PetrolFactor,
		"diesel": DieselFactor,
	})
}

// Lookup returns the factor for fuelType, matched case-insensitively.
func (t FactorTable) Lookup(fuelType string) (float64, error) {
	f, ok := t.factors[strings.ToLower(fuelType)]
	if !ok {
		return 0, &UnknownFuelTypeError{FuelType: fuelType}
	}
	return f, nil
}

// Factor is a single table entry.
type Factor struct {
	FuelType      string  `json:"fuel_type"`
	KgCO2PerLiter float64 `json:"kg_co2_per_liter"`
}

// Entries lists the table sorted by fuel type.
func (t FactorTable) Entries() []Factor {
	out := make([]Factor, 0, len(t.factors))
	for k, v := range t.factors {
		out = append(out, Factor{FuelType: k, KgCO2PerLiter: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FuelType < out[j].FuelType })
	return out
}

// Len returns the number of fuel types in the table.
func (t FactorTable) Len() int { return len(t.factors) }
