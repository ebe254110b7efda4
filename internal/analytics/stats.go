package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// dropNaN returns the finite-or-infinite (non-NaN) values of xs in a new slice.
func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

// sampleStd is the n-1 deviation; NaN below two observations.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// popStd is the n deviation used for z-scoring.
func popStd(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	return std
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return floats.Max(xs)
}

// quantile computes the linearly interpolated q-quantile (Hyndman-Fan type 7)
// of the non-NaN values of xs. gonum's LinearInterp uses a different plotting
// position, so the interpolation is done here.
func quantile(xs []float64, q float64) float64 {
	vals := dropNaN(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if len(vals) == 1 {
		return vals[0]
	}
	q = math.Min(math.Max(q, 0), 1)
	h := float64(len(vals)-1) * q
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return vals[int(lo)]
	}
	return vals[int(lo)] + (h-lo)*(vals[int(hi)]-vals[int(lo)])
}

func median(xs []float64) float64 {
	return quantile(xs, 0.5)
}

// finiteOr returns v, or fallback when v is NaN or infinite.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ratio divides a by b and clamps every non-finite outcome to 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finiteOr(a/b, 0)
}
