// Package gain computes per-bin, per-frame suppression gains from a
// magnitude spectrogram and a noise profile, and applies them.
package gain

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/noiseestimate"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// MaxGain is the largest gain any policy may produce.
const MaxGain = 1.2

// Matrix is a frame-major matrix of multiplicative gains.
type Matrix [][]float64

// Input is everything a policy may base its gains on. Mask may be nil.
type Input struct {
	Magnitudes [][]float64
	Noise      noiseestimate.Profile
	Mask       *vad.Mask
	SampleRate audio.SampleRate
	FFTSize    int
}

func (in Input) bins() int {
	if len(in.Magnitudes) == 0 {
		return 0
	}
	return len(in.Magnitudes[0])
}

func (in Input) validate(op string, needNoise bool) error {
	bins := in.bins()
	for f, row := range in.Magnitudes {
		if len(row) != bins {
			return audio.NewError(audio.KindShapeMismatch, op, fmt.Errorf("frame %d has %d bins, frame 0 has %d", f, len(row), bins))
		}
	}
	if needNoise && len(in.Noise) != bins {
		return audio.NewError(audio.KindShapeMismatch, op, fmt.Errorf("the noise profile has %d bins, the spectrogram has %d", len(in.Noise), bins))
	}
	return nil
}

type Policy interface {
	fmt.Stringer
	ComputeGain(ctx context.Context, in Input) (Matrix, error)
}

// Apply multiplies the magnitudes of s by g keeping the phases.
func Apply(s *frametransform.Spectrogram, g Matrix) (*frametransform.Spectrogram, error) {
	return s.Scale(g)
}

func newMatrix(frames, bins int) Matrix {
	result := make(Matrix, frames)
	for f := range result {
		result[f] = make([]float64, bins)
	}
	return result
}

// subtractionGain is the gain turning mag into max(mag - subtrahend,
// floor), capped at 1. A zero magnitude keeps gain 1.
func subtractionGain(mag, subtrahend, floor float64) float64 {
	if mag <= 0 {
		return 1
	}
	enhanced := mag - subtrahend
	if enhanced < floor {
		enhanced = floor
	}
	g := enhanced / mag
	if g > 1 {
		return 1
	}
	return g
}
