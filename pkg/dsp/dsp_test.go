package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedianFilter(t *testing.T) {
	x := []float64{1, 9, 2, 3, 100, 4, 5}
	got := MedianFilter(x, 3)
	// reflect boundary: [1 1 9] -> 1, [3 4 5] ... [4 5 5] -> 5
	assert.Equal(t, []float64{1, 2, 3, 3, 4, 5, 5}, got)

	constant := []float64{2, 2, 2, 2}
	assert.Equal(t, constant, MedianFilter(constant, 7))
	assert.Equal(t, x, MedianFilter(x, 1))
	assert.Empty(t, MedianFilter(nil, 5))
}

func TestGaussianFilter(t *testing.T) {
	kernel := GaussianKernel(2)
	require.Len(t, kernel, 17)
	var sum float64
	for _, v := range kernel {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-12)

	constant := []float64{3, 3, 3, 3, 3}
	for _, v := range GaussianFilter(constant, 3) {
		assert.InDelta(t, 3, v, 1e-12)
	}

	impulse := make([]float64, 41)
	impulse[20] = 1
	smoothed := GaussianFilter(impulse, 2)
	assert.InDelta(t, kernel[8], smoothed[20], 1e-12)
	assert.InDelta(t, smoothed[18], smoothed[22], 1e-12)
	assert.Less(t, smoothed[22], smoothed[20])
}

func TestReflectIndex(t *testing.T) {
	for idx, expected := range map[int]int{-1: 0, -2: 1, 4: 3, 5: 2, 2: 2} {
		assert.Equal(t, expected, reflectIndex(idx, 4), idx)
	}
	assert.Equal(t, 0, reflectIndex(-3, 1))
}

func TestPercentile(t *testing.T) {
	x := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 5.0, Percentile(x, 100))
	assert.Equal(t, 3.0, Percentile(x, 50))
	assert.InDelta(t, 1.4, Percentile(x, 10), 1e-12)
	assert.InDelta(t, 4.6, Percentile(x, 90), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, x)
	assert.Zero(t, Percentile(nil, 50))
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{1, 3})
	assert.InDelta(t, 2, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)
	assert.Zero(t, Mean(nil))
}

func TestMinMaxNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, MinMaxNormalize([]float64{2, 3, 4}, 1e-10))
	flat := MinMaxNormalize([]float64{5, 5, 5}, 1e-10)
	assert.Equal(t, []float64{0, 0, 0}, flat)
}

func TestClip(t *testing.T) {
	x := []float64{-0.5, 0.25, 1.5}
	assert.Equal(t, []float64{0, 0.25, 1}, Clip(x, 0, 1))
	assert.Equal(t, []float64{0, 0.25, 1}, x)
}

func TestArgsortAscending(t *testing.T) {
	assert.Equal(t, []int{1, 3, 0, 2}, ArgsortAscending([]float64{3, 1, 4, 1}))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite([]float64{0, 1, -1}))
	assert.False(t, IsFinite([]float64{0, math.NaN()}))
	assert.False(t, IsFinite([]float64{math.Inf(-1)}))
}

func TestMorphology(t *testing.T) {
	mask := []bool{false, false, false, true, false, false, false, false}
	assert.Equal(t,
		[]bool{false, true, true, true, true, true, false, false},
		BinaryDilate(mask, 2),
	)
	assert.Equal(t, make([]bool, 8), BinaryErode(mask, 1))

	closed := BinaryErode(BinaryDilate([]bool{true, false, true, false, false, false}, 1), 1)
	assert.Equal(t, []bool{true, true, true, false, false, false}, closed)

	allTrue := []bool{true, true, true}
	assert.Equal(t, allTrue, BinaryErode(allTrue, 5))
}
