// Package noiseestimate derives a per-bin noise magnitude profile from a
// magnitude spectrogram.
//
// Every estimator returns a strictly positive profile: it is floored at
// max(fraction*peak, MinNoise) so that gain formulas downstream never
// divide by zero.
package noiseestimate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// MinNoise is the absolute lower bound of every profile value.
const MinNoise = 1e-10

// Profile is the estimated noise magnitude per frequency bin.
type Profile []float64

// Max returns the largest value of the profile.
func (p Profile) Max() float64 {
	var result float64
	for _, v := range p {
		result = math.Max(result, v)
	}
	return result
}

// Scaled returns a copy of the profile multiplied by k.
func (p Profile) Scaled(k float64) Profile {
	result := make(Profile, len(p))
	for idx, v := range p {
		result[idx] = v * k
	}
	return result
}

type Estimator interface {
	// Estimate returns the noise profile of the frame-major magnitude
	// matrix mag. The mask may be nil; when given it must have one entry
	// per frame.
	Estimate(ctx context.Context, mag [][]float64, mask *vad.Mask) (Profile, error)
}

func validate(op string, mag [][]float64, mask *vad.Mask) (int, error) {
	if len(mag) == 0 {
		return 0, audio.NewError(audio.KindNumericalDegeneracy, op, fmt.Errorf("no frames"))
	}
	bins := len(mag[0])
	for f, row := range mag {
		if len(row) != bins {
			return 0, audio.NewError(audio.KindShapeMismatch, op, fmt.Errorf("frame %d has %d bins, frame 0 has %d", f, len(row), bins))
		}
	}
	if mask != nil && mask.Len() != 0 && mask.Len() != len(mag) {
		return 0, audio.NewError(audio.KindShapeMismatch, op, fmt.Errorf("the mask has %d frames, the spectrogram has %d", mask.Len(), len(mag)))
	}
	return bins, nil
}

// floorAt clamps every value of p to at least max(fraction*reference,
// MinNoise) in place.
func floorAt(p Profile, fraction, reference float64) Profile {
	floor := math.Max(fraction*reference, MinNoise)
	for idx, v := range p {
		if !(v > floor) {
			p[idx] = floor
		}
	}
	return p
}

// sortedColumns returns, for every bin, the magnitudes across all frames in
// ascending order.
func sortedColumns(mag [][]float64, bins int) [][]float64 {
	result := make([][]float64, bins)
	for b := range result {
		col := dsp.Column(mag, b)
		sort.Float64s(col)
		result[b] = col
	}
	return result
}

// meanOfFrames returns the per-bin mean magnitude over the given frames.
func meanOfFrames(mag [][]float64, bins int, frames []int) Profile {
	result := make(Profile, bins)
	if len(frames) == 0 {
		return result
	}
	for _, f := range frames {
		for b, v := range mag[f] {
			result[b] += v
		}
	}
	for b := range result {
		result[b] /= float64(len(frames))
	}
	return result
}

// frameEnergies returns the sum of squared magnitudes of every frame.
func frameEnergies(mag [][]float64) []float64 {
	result := make([]float64, len(mag))
	for f, row := range mag {
		result[f] = vad.FrameEnergy(row)
	}
	return result
}
