package measure

import (
	"fmt"
	"math"
)

// FormatFeetInches renders a length in feet as the feet-and-inches label
// shown next to measurement lines, e.g. 12.5 -> `12' 6"`.
func FormatFeetInches(feet float64) string {
	neg := feet < 0
	feet = math.Abs(feet)

	whole := math.Floor(feet)
	inches := math.Round((feet - whole) * 12)
	if inches == 12 {
		whole++
		inches = 0
	}

	s := fmt.Sprintf("%d' %d\"", int(whole), int(inches))
	if neg {
		return "-" + s
	}
	return s
}

// FormatArea renders an area in square feet.
func FormatArea(sqft float64) string {
	return fmt.Sprintf("%.1f sq ft", sqft)
}
