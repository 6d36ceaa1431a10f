package gain

import (
	"context"
	"fmt"
	"math"
)

const wienerEpsilon = 1e-10

// Wiener is the ratio of the signal power to the signal plus noise power.
//
// With SubtractNoise the signal power is the observed power minus the
// noise power (at least an epsilon), otherwise it is the observed power
// itself, which makes the filter gentler.
type Wiener struct {
	MinGain       float64
	Exponent      float64
	NoiseScale    float64
	SubtractNoise bool
}

var _ Policy = (*Wiener)(nil)

func (p *Wiener) String() string {
	return fmt.Sprintf("wiener(min=%g, exp=%g, noise*%g, subtract=%t)", p.MinGain, p.Exponent, p.NoiseScale, p.SubtractNoise)
}

func (p *Wiener) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("Wiener.ComputeGain", true); err != nil {
		return nil, err
	}
	exponent := p.Exponent
	if exponent <= 0 {
		exponent = 1
	}
	noiseScale := p.NoiseScale
	if noiseScale <= 0 {
		noiseScale = 1
	}

	result := newMatrix(len(in.Magnitudes), in.bins())
	for f, row := range in.Magnitudes {
		for b, m := range row {
			n := in.Noise[b] * noiseScale
			noisePower := n * n
			signalPower := m * m
			if p.SubtractNoise {
				signalPower = math.Max(signalPower-noisePower, wienerEpsilon)
			}
			g := signalPower / (signalPower + noisePower + wienerEpsilon)
			if exponent != 1 {
				g = math.Pow(g, exponent)
			}
			result[f][b] = math.Max(p.MinGain, math.Min(1, g))
		}
	}
	return result, nil
}
