// Package energy implements the simplest voice activity detector: a frame
// is speech when its RMS is above a percentile of all frame RMS values.
package energy

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
	Frame      frametransform.Params
	Percentile float64
}

func DefaultConfig() Config {
	return Config{
		Frame: frametransform.Params{
			FFTSize:   2048,
			HopLength: 512,
			Window:    audio.WindowRectangular,
		},
		Percentile: 50,
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
		return nil, audio.NewError(audio.KindConfiguration, "energy.Detect", fmt.Errorf("zero sample rate"))
	}
	mask := &vad.Mask{HopLength: d.Config.Frame.HopLength}
	if len(samples) == 0 {
		return mask, nil
	}

	frames, err := frametransform.Frames(samples, d.Config.Frame)
	if err != nil {
		return nil, err
	}
	rms := make([]float64, len(frames))
	for f, frame := range frames {
		rms[f] = vad.FrameRMS(frame)
	}
	threshold := dsp.Percentile(rms, d.Config.Percentile)

	mask.Score = dsp.MinMaxNormalize(rms, 1e-10)
	mask.Speech = make([]bool, len(rms))
	for f, v := range rms {
		mask.Speech[f] = v > threshold
	}
	logger.Debugf(ctx, "energy VAD: threshold %g; speech fraction %f", threshold, mask.SpeechFraction())
	return mask, nil
}
