package pipeline

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
)

// PerceptualWeighting reweights the whole-signal spectrum: SpeechWeight
// for frequencies in (SpeechFromHz, SpeechToHz) and LowWeight below LowHz.
type PerceptualWeighting struct {
	SpeechFromHz float64
	SpeechToHz   float64
	SpeechWeight float64
	LowHz        float64
	LowWeight    float64
}

var _ Stage = (*PerceptualWeighting)(nil)

func NewPerceptualWeighting() *PerceptualWeighting {
	return &PerceptualWeighting{
		SpeechFromHz: 1000,
		SpeechToHz:   4000,
		SpeechWeight: 1.5,
		LowHz:        200,
		LowWeight:    0.7,
	}
}

func (*PerceptualWeighting) Name() string {
	return "perceptual_weighting"
}

func (p *PerceptualWeighting) weight(hz float64) float64 {
	switch {
	case hz < p.LowHz:
		return p.LowWeight
	case hz > p.SpeechFromHz && hz < p.SpeechToHz:
		return p.SpeechWeight
	default:
		return 1
	}
}

func (p *PerceptualWeighting) Process(
	ctx context.Context,
	w []float64,
	sampleRate audio.SampleRate,
) StageResult {
	n := len(w)
	if n == 0 {
		return succeeded(w)
	}

	spectrum := fft.FFTReal(w)
	binHz := float64(sampleRate) / float64(n)
	for k := range spectrum {
		// the negative frequencies mirror the positive ones so that the
		// result stays real
		freq := min(k, n-k)
		spectrum[k] *= complex(p.weight(float64(freq)*binHz), 0)
	}
	weighted := fft.IFFT(spectrum)

	result := make([]float64, n)
	for idx, v := range weighted {
		result[idx] = real(v)
	}
	if !dsp.IsFinite(result) {
		return degraded(w, errDegenerate("PerceptualWeighting.Process", "non-finite output"))
	}
	logger.Tracef(ctx, "perceptual weighting of %d samples, %g Hz per bin", n, binHz)
	return succeeded(result)
}
