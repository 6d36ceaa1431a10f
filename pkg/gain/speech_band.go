package gain

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// BandWeight is a relative weight of the bins in [FromHz, ToHz).
type BandWeight struct {
	FromHz float64
	ToHz   float64
	Weight float64
}

// SpeechBandEmphasis weights bins by frequency range, favouring the
// formant and consonant regions. Later bands override earlier ones; the
// weights are normalized by their maximum so that the gain never exceeds 1.
type SpeechBandEmphasis struct {
	Default float64
	Bands   []BandWeight
}

var _ Policy = (*SpeechBandEmphasis)(nil)

func NewSpeechBandEmphasis() *SpeechBandEmphasis {
	return &SpeechBandEmphasis{
		Default: 1,
		Bands: []BandWeight{
			{FromHz: 0, ToHz: 80, Weight: 0.1},
			{FromHz: 8000, ToHz: 1e12, Weight: 0.3},
			{FromHz: 800, ToHz: 4000, Weight: 3.5},
			{FromHz: 2000, ToHz: 4000, Weight: 4},
			{FromHz: 500, ToHz: 1000, Weight: 2.5},
			{FromHz: 80, ToHz: 250, Weight: 2},
		},
	}
}

func (p *SpeechBandEmphasis) String() string {
	return fmt.Sprintf("speech_band_emphasis(%d bands)", len(p.Bands))
}

// Weights returns the normalized per-bin weights.
func (p *SpeechBandEmphasis) Weights(bins int, binHz float64) []float64 {
	result := make([]float64, bins)
	var peak float64
	for b := range result {
		freq := float64(b) * binHz
		w := p.Default
		for _, band := range p.Bands {
			if freq >= band.FromHz && freq < band.ToHz {
				w = band.Weight
			}
		}
		result[b] = w
		if w > peak {
			peak = w
		}
	}
	if peak > 0 {
		for b := range result {
			result[b] /= peak
		}
	}
	return result
}

func (p *SpeechBandEmphasis) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("SpeechBandEmphasis.ComputeGain", false); err != nil {
		return nil, err
	}
	if in.FFTSize <= 0 || in.SampleRate == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "SpeechBandEmphasis.ComputeGain",
			fmt.Errorf("FFT size and sample rate are required, got %d and %d", in.FFTSize, in.SampleRate))
	}
	weights := p.Weights(in.bins(), float64(in.SampleRate)/float64(in.FFTSize))
	result := newMatrix(len(in.Magnitudes), in.bins())
	for f := range result {
		copy(result[f], weights)
	}
	return result, nil
}
