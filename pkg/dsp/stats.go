package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percentile returns the p-th percentile (0..100) of x using linear
// interpolation between the closest ranks. It returns 0 for an empty x.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return PercentileSorted(sorted, p)
}

// PercentileSorted is Percentile for an already ascending x.
func PercentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(100, p))
	pos := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// Mean returns the arithmetic mean of x, or 0 for an empty x.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// MeanStd returns the mean and the population standard deviation of x.
func MeanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(x, nil)
}

// MinMaxNormalize maps x onto [0, 1] by its own range. When the range is
// narrower than minSpan, minSpan is used as the denominator so that a
// nearly flat sequence is not stretched into full-scale jitter.
func MinMaxNormalize(x []float64, minSpan float64) []float64 {
	result := make([]float64, len(x))
	if len(x) == 0 {
		return result
	}
	lo, hi := floats.Min(x), floats.Max(x)
	span := math.Max(hi-lo, minSpan)
	if span <= 0 {
		return result
	}
	for i, v := range x {
		result[i] = (v - lo) / span
	}
	return result
}

// Clip limits every value of x to [lo, hi] in place and returns x.
func Clip(x []float64, lo, hi float64) []float64 {
	for i, v := range x {
		x[i] = math.Max(lo, math.Min(hi, v))
	}
	return x
}

// ArgsortAscending returns the indexes of x ordered by ascending value.
// Equal values keep their original order.
func ArgsortAscending(x []float64) []int {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return x[idx[a]] < x[idx[b]]
	})
	return idx
}

// IsFinite reports whether every value of x is neither NaN nor infinite.
func IsFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Column extracts column col of a row-major matrix.
func Column(m [][]float64, col int) []float64 {
	result := make([]float64, len(m))
	for i, row := range m {
		result[i] = row[col]
	}
	return result
}
