package emissions

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every error caused by invalid input data.
var ErrValidation = errors.New("invalid emissions input")

// UnknownFuelTypeError reports a fuel type missing from the factor table.
type UnknownFuelTypeError struct {
	FuelType string
}

func (e *UnknownFuelTypeError) Error() string {
	return fmt.Sprintf("unknown fuel type %q", e.FuelType)
}

// Is reports whether target is ErrValidation.
func (e *UnknownFuelTypeError) Is(target error) bool { return target == ErrValidation }

// InvalidRecordError reports a record whose field holds an impossible value.
type InvalidRecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("vehicles[%d].%s %s", e.Index, e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *InvalidRecordError) Is(target error) bool { return target == ErrValidation }

// ProjectionOverflowError reports a target year too far ahead for the
// projected total to be representable.
type ProjectionOverflowError struct {
	Year int
}

func (e *ProjectionOverflowError) Error() string {
	return fmt.Sprintf("projection to year %d overflows", e.Year)
}

// Is reports whether target is ErrValidation.
func (e *ProjectionOverflowError) Is(target error) bool { return target == ErrValidation }
