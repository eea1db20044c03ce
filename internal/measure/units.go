package measure

import (
	"fmt"
	"math"
)

// Unit is a real-world length unit accepted for calibration input.
type Unit string

const (
	UnitFeet   Unit = "feet"
	UnitInches Unit = "inches"
	UnitMeters Unit = "meters"
)

// MetersToFeet is the fixed conversion constant used throughout.
const MetersToFeet = 3.28084

// ParseUnit accepts the unit spellings the clients send.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "feet", "ft", "foot", "'":
		return UnitFeet, nil
	case "inches", "in", "inch", `"`:
		return UnitInches, nil
	case "meters", "m", "meter":
		return UnitMeters, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// ToFeet converts a distance in the given unit to feet. Non-positive and
// non-finite values are rejected.
func ToFeet(value float64, unit Unit) (float64, error) {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("distance %v: %w", value, ErrInvalidDistance)
	}

	switch unit {
	case UnitFeet:
		return value, nil
	case UnitInches:
		return value / 12, nil
	case UnitMeters:
		return value * MetersToFeet, nil
	}
	return 0, fmt.Errorf("unknown unit %q", unit)
}
