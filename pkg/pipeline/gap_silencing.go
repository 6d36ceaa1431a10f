package pipeline

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// GapSilencing attenuates the samples between speech regions: each sample
// is multiplied by Floor + (1-Floor)*envelope, where the envelope is the
// VAD mask expanded to samples and smoothed with a Gaussian of
// SmoothingSeconds.
type GapSilencing struct {
	VAD              vad.VAD
	Floor            float64
	SmoothingSeconds float64
}

var _ Stage = (*GapSilencing)(nil)

func (*GapSilencing) Name() string {
	return "gap_silencing"
}

func (s *GapSilencing) Validate() error {
	if s.VAD == nil {
		return audio.NewError(audio.KindConfiguration, "GapSilencing.Validate", fmt.Errorf("no VAD"))
	}
	if s.Floor < 0 || s.Floor > 1 {
		return audio.NewError(audio.KindConfiguration, "GapSilencing.Validate", fmt.Errorf("floor %g is not within [0, 1]", s.Floor))
	}
	return nil
}

func (s *GapSilencing) Process(
	ctx context.Context,
	w []float64,
	sampleRate audio.SampleRate,
) StageResult {
	if len(w) == 0 {
		return succeeded(w)
	}
	mask, err := s.VAD.Detect(ctx, w, sampleRate)
	if err != nil {
		return failed(w, fmt.Errorf("unable to detect voice activity: %w", err))
	}
	if mask.Len() == 0 {
		return degraded(w, errDegenerate("GapSilencing.Process", "empty voice activity mask"))
	}

	envelope := dsp.GaussianFilter(mask.SampleEnvelope(len(w)), s.SmoothingSeconds*float64(sampleRate))
	result := make([]float64, len(w))
	for idx, v := range w {
		result[idx] = v * (s.Floor + (1-s.Floor)*envelope[idx])
	}
	logger.Debugf(ctx, "gap silencing: speech in %.1f%% of frames", 100*mask.SpeechFraction())
	return succeeded(result)
}
