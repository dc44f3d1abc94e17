package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	cases := []struct {
		name string
		xs   []float64
		p    float64
		want float64
	}{
		{name: "empty", xs: nil, p: 50, want: 0},
		{name: "single value", xs: []float64{7}, p: 90, want: 7},
		{name: "median of odd count", xs: []float64{3, 1, 2}, p: 50, want: 2},
		{name: "median of even count", xs: []float64{4, 1, 3, 2}, p: 50, want: 2.5},
		{name: "minimum", xs: []float64{5, 1, 9}, p: 0, want: 1},
		{name: "maximum", xs: []float64{5, 1, 9}, p: 100, want: 9},
		{name: "interpolated", xs: []float64{10, 20, 30, 40, 50}, p: 25, want: 20},
		{name: "interpolated between ranks", xs: []float64{1, 2, 3, 4}, p: 25, want: 1.75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, percentile(tc.xs, tc.p), 1e-9)
		})
	}

	xs := []float64{3, 1, 2}
	_ = percentile(xs, 50)
	assert.Equal(t, []float64{3, 1, 2}, xs, "input must not be sorted in place")
}

func TestPctChange(t *testing.T) {
	cases := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{name: "growth", current: 150, previous: 100, want: 50},
		{name: "decline", current: 50, previous: 100, want: -50},
		{name: "from zero", current: 5, previous: 0, want: 100},
		{name: "both zero", current: 0, previous: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pctChange(tc.current, tc.previous))
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 2.0, mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, safeDiv(1, 0))
	assert.Equal(t, 0.0, pctDelta(5, 0))
	assert.Equal(t, -25.0, pctDelta(15, 20))
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{4, 4, 4}))
	assert.Equal(t, 0.0, coefficientOfVariation(nil))
	assert.InDelta(t, 50.0, coefficientOfVariation([]float64{1, 3}), 1e-9)
}
