// Package export renders calculation results as JSON or CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kilianp07/fleetco2/core/emissions"
)

// VehicleHeader lists the CSV columns written by WriteCSV.
var VehicleHeader = []string{
	"vehicle_type", "fuel_type", "count", "total_fuel", "co2_kg", "co2_tons",
	"percent_of_total", "ozone_impact_percent", "climate_change_percent", "glacier_melt_percent",
}

// BreakdownHeader lists the CSV columns written by WriteBreakdownCSV.
var BreakdownHeader = []string{"fuel_type", "vehicles", "total_fuel", "co2_tons", "percent_of_total"}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes one row per vehicle result.
func WriteCSV(w io.Writer, res *emissions.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VehicleHeader); err != nil {
		return err
	}
	if res != nil {
		for _, r := range res.VehicleResults {
			rec := []string{
				r.VehicleType,
				r.FuelType,
				strconv.Itoa(r.Count),
				formatFloat(r.TotalFuel),
				formatFloat(r.CO2Kg),
				formatFloat(r.CO2Tons),
				formatFloat(r.PercentOfTotal),
				formatFloat(r.OzoneImpactPercent),
				formatFloat(r.ClimateChangePercent),
				formatFloat(r.GlacierMeltPercent),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBreakdownCSV writes one row per fuel type.
func WriteBreakdownCSV(w io.Writer, rows []emissions.FuelBreakdown) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BreakdownHeader); err != nil {
		return err
	}
	for _, b := range rows {
		rec := []string{
			b.FuelType,
			strconv.Itoa(b.Vehicles),
			formatFloat(b.TotalFuel),
			formatFloat(b.CO2Tons),
			formatFloat(b.PercentOfTotal),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
