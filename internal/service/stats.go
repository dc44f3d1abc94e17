package service

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func mean(xs []float64) float64 {
	return safeDiv(lo.Sum(xs), float64(len(xs)))
}

// percentile interpolates linearly between the closest ranks. p is in [0,100].
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

func median(xs []float64) float64 {
	return percentile(xs, 50)
}

// coefficientOfVariation uses the population standard deviation, in percent.
func coefficientOfVariation(xs []float64) float64 {
	m := mean(xs)
	if m == 0 {
		return 0
	}
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq/float64(len(xs))) / m * 100
}

// pctChange is 100 when growing from zero and 0 when both are zero.
func pctChange(current, previous float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100.0
	}
	if current > 0 {
		return 100.0
	}
	return 0
}

// pctDelta is the relative difference of v against base, 0 when base is 0.
func pctDelta(v, base float64) float64 {
	return safeDiv(v-base, base) * 100
}
