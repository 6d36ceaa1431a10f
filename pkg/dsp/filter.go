// Package dsp contains the small numeric kernels the enhancement stages
// share: order-statistic and Gaussian smoothing, percentiles and binary
// morphology over one-dimensional sequences.
//
// Boundary handling follows the "reflect" convention (d c b a | a b c d |
// d c b a): the edge sample is repeated, so a constant sequence stays
// constant after any of the filters.
package dsp

import (
	"math"
	"sort"
)

const (
	// GaussianTruncate is the kernel radius in standard deviations.
	GaussianTruncate = 4.0
)

// reflectIndex maps an out-of-range index into [0, n) by mirroring with
// the edge sample repeated.
func reflectIndex(idx, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	idx %= period
	if idx < 0 {
		idx += period
	}
	if idx >= n {
		idx = period - 1 - idx
	}
	return idx
}

// MedianFilter returns x smoothed by a running median of the given size.
// Sizes below 2 return a copy of x.
func MedianFilter(x []float64, size int) []float64 {
	result := make([]float64, len(x))
	if size < 2 || len(x) == 0 {
		copy(result, x)
		return result
	}
	window := make([]float64, size)
	left := size / 2
	for i := range x {
		for j := 0; j < size; j++ {
			window[j] = x[reflectIndex(i-left+j, len(x))]
		}
		sort.Float64s(window)
		result[i] = window[size/2]
	}
	return result
}

// GaussianKernel returns the normalized Gaussian kernel for sigma,
// truncated at GaussianTruncate standard deviations.
func GaussianKernel(sigma float64) []float64 {
	radius := int(GaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianFilter returns x convolved with a Gaussian kernel of the given
// standard deviation. A non-positive sigma returns a copy of x.
func GaussianFilter(x []float64, sigma float64) []float64 {
	result := make([]float64, len(x))
	if sigma <= 0 || len(x) == 0 {
		copy(result, x)
		return result
	}
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2
	n := len(x)
	for i := range x {
		var acc float64
		if i-radius >= 0 && i+radius < n {
			window := x[i-radius : i+radius+1]
			for k, w := range kernel {
				acc += w * window[k]
			}
		} else {
			for k, w := range kernel {
				acc += w * x[reflectIndex(i-radius+k, n)]
			}
		}
		result[i] = acc
	}
	return result
}
