package pipeline

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/gain"
	"github.com/xaionaro-go/speechenhance/pkg/noiseestimate"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// NoiseEstimatorFactory builds the noise estimator of a spectral stage for
// the given sample rate and framing.
type NoiseEstimatorFactory func(sampleRate audio.SampleRate, frame frametransform.Params) noiseestimate.Estimator

// Progression returns the policy of the given pass (counting from zero).
type Progression func(pass int) gain.Policy

// SpectralStage analyzes the waveform, estimates the noise (and the voice
// activity, if VAD is set), computes gains with a policy, applies them and
// synthesizes the waveform back. With Passes > 1 it repeats this on its
// own output.
type SpectralStage struct {
	Label string
	Frame frametransform.Params

	// Noise may be nil for policies which ignore the noise profile.
	Noise NoiseEstimatorFactory

	// VAD may be nil; the policy then sees every frame as speech.
	VAD vad.VAD

	// Policy is used for every pass unless Progression is set.
	Policy      gain.Policy
	Progression Progression
	Passes      int
}

var _ Stage = (*SpectralStage)(nil)

func (s *SpectralStage) Name() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Policy != nil {
		return s.Policy.String()
	}
	return "spectral"
}

func (s *SpectralStage) passes() int {
	return max(1, s.Passes)
}

func (s *SpectralStage) policy(pass int) gain.Policy {
	if s.Progression != nil {
		return s.Progression(pass)
	}
	return s.Policy
}

// Validate checks the stage can be run at all.
func (s *SpectralStage) Validate() error {
	var mErr *multierror.Error
	if err := s.Frame.Validate(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if s.Policy == nil && s.Progression == nil {
		mErr = multierror.Append(mErr, fmt.Errorf("no policy"))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return audio.NewError(audio.KindConfiguration, "SpectralStage.Validate", fmt.Errorf("stage %q: %w", s.Name(), err))
	}
	return nil
}

func (s *SpectralStage) Process(
	ctx context.Context,
	w []float64,
	sampleRate audio.SampleRate,
) StageResult {
	t, err := frametransform.New(s.Frame)
	if err != nil {
		return failed(w, err)
	}

	cur := w
	for pass := range s.passes() {
		next, err := s.processPass(ctx, t, cur, sampleRate, pass)
		if err != nil {
			return failed(w, fmt.Errorf("pass %d: %w", pass, err))
		}
		cur = next
	}
	return succeeded(cur)
}

func (s *SpectralStage) processPass(
	ctx context.Context,
	t *frametransform.Transform,
	w []float64,
	sampleRate audio.SampleRate,
	pass int,
) ([]float64, error) {
	spec := t.Analyze(w)
	mag := spec.Magnitudes()

	var mask *vad.Mask
	if s.VAD != nil {
		detected, err := s.VAD.Detect(ctx, w, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("unable to detect voice activity: %w", err)
		}
		mask = detected.Align(s.Frame.HopLength, spec.NumFrames())
		logger.Tracef(ctx, "%s: speech in %.1f%% of frames", s.Name(), 100*mask.SpeechFraction())
	}

	var noise noiseestimate.Profile
	if s.Noise != nil {
		var err error
		noise, err = s.Noise(sampleRate, s.Frame).Estimate(ctx, mag, mask)
		if err != nil {
			return nil, fmt.Errorf("unable to estimate the noise: %w", err)
		}
		if !dsp.IsFinite(noise) {
			return nil, errDegenerate("SpectralStage.Process", "non-finite noise profile")
		}
	}

	policy := s.policy(pass)
	logger.Debugf(ctx, "%s: pass %d with %s", s.Name(), pass, policy)
	g, err := policy.ComputeGain(ctx, gain.Input{
		Magnitudes: mag,
		Noise:      noise,
		Mask:       mask,
		SampleRate: sampleRate,
		FFTSize:    s.Frame.FFTSize,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to compute the gain: %w", err)
	}

	enhanced, err := gain.Apply(spec, g)
	if err != nil {
		return nil, fmt.Errorf("unable to apply the gain: %w", err)
	}
	return t.Synthesize(enhanced, len(w))
}
