// Package vad defines the voice activity detector interface, the frame
// mask it produces and the per-frame features the detectors share.
package vad

import (
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/dsp"
)

const epsilon = 1e-10

// FrameEnergy is the sum of squared samples of a frame.
func FrameEnergy(frame []float64) float64 {
	var result float64
	for _, v := range frame {
		result += v * v
	}
	return result
}

// FrameRMS is the root mean square of a frame.
func FrameRMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	return math.Sqrt(FrameEnergy(frame) / float64(len(frame)))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// ZeroCrossingRate is the share of adjacent sample pairs with a different
// sign, relative to the frame length.
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	var count int
	prev := sign(frame[0])
	for _, v := range frame[1:] {
		cur := sign(v)
		if cur != prev {
			count++
		}
		prev = cur
	}
	return float64(count) / float64(len(frame))
}

// SpectralCentroid is the magnitude-weighted mean frequency of a spectrum
// whose bin b is centred at b*binHz.
func SpectralCentroid(mag []float64, binHz float64) float64 {
	var num, den float64
	for b, m := range mag {
		num += float64(b) * binHz * m
		den += m
	}
	return num / (den + epsilon)
}

// SpectralFlatness is the ratio of the geometric to the arithmetic mean of
// a magnitude spectrum: close to 1 for noise, close to 0 for tones.
func SpectralFlatness(mag []float64) float64 {
	if len(mag) == 0 {
		return 0
	}
	var logSum, sum float64
	for _, m := range mag {
		logSum += math.Log(m + epsilon)
		sum += m
	}
	n := float64(len(mag))
	return math.Exp(logSum/n) / (sum/n + epsilon)
}

// HarmonicRatioDB is a harmonic-to-noise proxy: the inverse of the
// relative spread of the magnitude spectrum, in dB.
func HarmonicRatioDB(mag []float64) float64 {
	mean, std := dsp.MeanStd(mag)
	smoothness := std / (mean + epsilon)
	return 10 * math.Log10(1/(smoothness+epsilon))
}
