// Package rules implements a voice activity detector that marks a frame as
// speech when its energy, zero-crossing rate and spectral centroid all fall
// into speech-typical ranges.
package rules

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

type Config struct {
	Frame frametransform.Params

	EnergyPercentile float64
	MinZCR           float64
	MaxZCR           float64
	MinCentroidHz    float64
	MaxCentroidHz    float64
	Sigma            float64
	Threshold        float64
}

func DefaultConfig() Config {
	return Config{
		Frame: frametransform.Params{
			FFTSize:   1024,
			HopLength: 256,
			Window:    audio.WindowHann,
		},
		EnergyPercentile: 30,
		MinZCR:           0.05,
		MaxZCR:           0.3,
		MinCentroidHz:    500,
		MaxCentroidHz:    4000,
		Sigma:            3,
		Threshold:        0.5,
	}
}

type Detector struct {
	Config Config
}

var _ vad.VAD = (*Detector)(nil)

func New(cfg Config) (*Detector, error) {
	if err := cfg.Frame.Validate(); err != nil {
		return nil, err
	}
	return &Detector{Config: cfg}, nil
}

func (d *Detector) Detect(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) (*vad.Mask, error) {
	if sampleRate == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "rules.Detect", fmt.Errorf("zero sample rate"))
	}
	mask := &vad.Mask{HopLength: d.Config.Frame.HopLength}
	if len(samples) == 0 {
		return mask, nil
	}

	tr, err := frametransform.New(d.Config.Frame)
	if err != nil {
		return nil, err
	}
	frames := tr.Frames(samples)
	mag := tr.Analyze(samples).Magnitudes()
	binHz := d.Config.Frame.BinFrequency(1, sampleRate)

	energy := make([]float64, len(mag))
	for f, spectrum := range mag {
		energy[f] = vad.FrameEnergy(spectrum)
	}
	threshold := dsp.Percentile(energy, d.Config.EnergyPercentile)

	voice := make([]float64, len(mag))
	for f := range mag {
		zcr := vad.ZeroCrossingRate(frames[f])
		centroid := vad.SpectralCentroid(mag[f], binHz)
		if energy[f] > threshold &&
			zcr > d.Config.MinZCR && zcr < d.Config.MaxZCR &&
			centroid > d.Config.MinCentroidHz && centroid < d.Config.MaxCentroidHz {
			voice[f] = 1
		}
	}

	mask.Score = dsp.GaussianFilter(voice, d.Config.Sigma)
	mask.Speech = make([]bool, len(mask.Score))
	for f, v := range mask.Score {
		mask.Speech[f] = v > d.Config.Threshold
	}
	logger.Debugf(ctx, "rules VAD: energy threshold %g; speech fraction %f", threshold, mask.SpeechFraction())
	return mask, nil
}
