package gain

import (
	"context"
	"fmt"
)

// Regime is a pair of subtraction parameters.
type Regime struct {
	Alpha float64
	Beta  float64
}

// VADAdaptiveSubtraction subtracts gently on speech frames and hard on the
// rest; the floor is relative to the magnitude.
type VADAdaptiveSubtraction struct {
	Speech  Regime
	Silence Regime
}

var _ Policy = (*VADAdaptiveSubtraction)(nil)

func (p *VADAdaptiveSubtraction) String() string {
	return fmt.Sprintf("vad_adaptive_subtraction(speech=%g/%g, silence=%g/%g)",
		p.Speech.Alpha, p.Speech.Beta, p.Silence.Alpha, p.Silence.Beta)
}

func (p *VADAdaptiveSubtraction) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("VADAdaptiveSubtraction.ComputeGain", true); err != nil {
		return nil, err
	}
	result := newMatrix(len(in.Magnitudes), in.bins())
	for f, row := range in.Magnitudes {
		regime := p.Silence
		if in.Mask.Activity(f) > 0 {
			regime = p.Speech
		}
		for b, m := range row {
			result[f][b] = subtractionGain(m, regime.Alpha*in.Noise[b], regime.Beta*m)
		}
	}
	return result, nil
}

// BiasedSubtraction raises the over-subtraction factor by SilenceBoost on
// non-speech frames; the floor is relative to the noise.
type BiasedSubtraction struct {
	Alpha        float64
	Beta         float64
	SilenceBoost float64
}

var _ Policy = (*BiasedSubtraction)(nil)

func (p *BiasedSubtraction) String() string {
	return fmt.Sprintf("biased_subtraction(alpha=%g+%g, beta=%g)", p.Alpha, p.SilenceBoost, p.Beta)
}

func (p *BiasedSubtraction) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("BiasedSubtraction.ComputeGain", true); err != nil {
		return nil, err
	}
	result := newMatrix(len(in.Magnitudes), in.bins())
	for f, row := range in.Magnitudes {
		alpha := p.Alpha + (1-in.Mask.Activity(f))*p.SilenceBoost
		for b, m := range row {
			n := in.Noise[b]
			result[f][b] = subtractionGain(m, alpha*n, p.Beta*n)
		}
	}
	return result, nil
}
