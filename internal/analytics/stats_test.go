package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		q    float64
		want float64
	}{
		{"median even", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"q40", []float64{1, 2, 3, 4}, 0.4, 2.2},
		{"q80", []float64{10, 20, 30}, 0.8, 26},
		{"min", []float64{5, 1, 9}, 0, 1},
		{"max", []float64{5, 1, 9}, 1, 9},
		{"single", []float64{7}, 0.3, 7},
		{"skips nan", []float64{math.NaN(), 1, 3}, 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, quantile(tt.in, tt.q), 1e-9)
		})
	}
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestRatioClampsNonFinite(t *testing.T) {
	assert.Equal(t, 0.0, ratio(1, 0))
	assert.Equal(t, 0.0, ratio(math.NaN(), 2))
	assert.Equal(t, 0.0, ratio(math.Inf(1), 2))
	assert.Equal(t, 2.5, ratio(5, 2))
}

func TestStdVariants(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, popStd(xs), 1e-12)
	assert.InDelta(t, 2.138089935, sampleStd(xs), 1e-9)
	assert.True(t, math.IsNaN(sampleStd([]float64{1})))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.235))
	assert.Equal(t, 0.0, round2(math.NaN()))
	assert.Equal(t, 0.0, round2(math.Inf(-1)))
}
