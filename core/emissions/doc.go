// Package emissions computes fleet CO2 emissions from fuel consumption.
//
// A Calculator turns a Request (vehicle records, location and target year)
// into a Result holding per-record figures, the aggregate total in tonnes and
// a projection of that total to the target year. Fuel types are resolved
// through an immutable FactorTable; an unknown fuel type aborts the whole
// calculation with an UnknownFuelTypeError.
package emissions
