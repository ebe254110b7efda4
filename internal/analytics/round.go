package analytics

import (
	"github.com/shopspring/decimal"
)

// roundTo rounds half away from zero at the given number of places and maps
// NaN and infinities to 0.
func roundTo(v float64, places int32) float64 {
	v = finiteOr(v, 0)
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func round2(v float64) float64 {
	return roundTo(v, 2)
}
