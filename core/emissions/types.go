package emissions

// VehicleRecord describes the fuel consumed by a group of identical vehicles.
type VehicleRecord struct {
	VehicleType      string  `json:"vehicle_type" yaml:"vehicle_type"`
	Count            int     `json:"count" yaml:"count"`
	FuelType         string  `json:"fuel_type" yaml:"fuel_type"`
	LitersPerVehicle float64 `json:"liters_per_vehicle" yaml:"liters_per_vehicle"`
}

// TotalFuel returns the liters consumed by all vehicles of the record.
func (r VehicleRecord) TotalFuel() float64 {
	return float64(r.Count) * r.LitersPerVehicle
}

// Request is the input of a single calculation.
type Request struct {
	Vehicles []VehicleRecord `json:"vehicles" yaml:"vehicles"`
	Location string          `json:"location" yaml:"location"`
	Year     int             `json:"year" yaml:"year"`
}

// Validate rejects records with negative counts or fuel volumes.
func (r Request) Validate() error {
	for i, v := range r.Vehicles {
		if v.Count < 0 {
			return &InvalidRecordError{Index: i, Field: "count", Reason: "must not be negative"}
		}
		if v.LitersPerVehicle < 0 {
			return &InvalidRecordError{Index: i, Field: "liters_per_vehicle", Reason: "must not be negative"}
		}
	}
	return nil
}

// VehicleResult holds the emission figures computed for one VehicleRecord.
type VehicleResult struct {
	VehicleType          string  `json:"vehicle_type"`
	FuelType             string  `json:"fuel_type"`
	Count                int     `json:"count"`
	TotalFuel            float64 `json:"total_fuel"`
	CO2Kg                float64 `json:"co2_kg"`
	CO2Tons              float64 `json:"co2_tons"`
	PercentOfTotal       float64 `json:"percent_of_total"`
	OzoneImpactPercent   float64 `json:"ozone_impact_percent"`
	ClimateChangePercent float64 `json:"climate_change_percent"`
	GlacierMeltPercent   float64 `json:"glacier_melt_percent"`
}

// Result is the outcome of a calculation. VehicleResults follow the order
// of the request records.
type Result struct {
	Location         string          `json:"location"`
	Year             int             `json:"year"`
	VehicleResults   []VehicleResult `json:"vehicle_results"`
	TotalCO2Tons     float64         `json:"total_co2_tons"`
	ProjectedCO2Tons float64         `json:"projected_co2_tons"`
}
