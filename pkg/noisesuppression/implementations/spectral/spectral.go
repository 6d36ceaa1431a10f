// Package spectral implements noisesuppression.NoiseSuppression on top of
// the spectral enhancer. Every channel is enhanced independently.
package spectral

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcm"
	"github.com/xaionaro-go/speechenhance/pkg/audio/planar"
	"github.com/xaionaro-go/speechenhance/pkg/enhancer"
	"github.com/xaionaro-go/speechenhance/pkg/noisesuppression"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

type Spectral struct {
	Enhancer    *enhancer.Enhancer
	FormatValue noisesuppression.Format
	Profile     pipeline.Profile
}

var _ noisesuppression.NoiseSuppression = (*Spectral)(nil)

func New(
	e *enhancer.Enhancer,
	format noisesuppression.Format,
	profile pipeline.Profile,
) (*Spectral, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.Composer.Table.Params(profile); err != nil {
		return nil, err
	}
	return &Spectral{
		Enhancer:    e,
		FormatValue: format,
		Profile:     profile,
	}, nil
}

func (s *Spectral) Close() error {
	return nil
}

func (s *Spectral) Format(context.Context) (noisesuppression.Format, error) {
	return s.FormatValue, nil
}

// SuppressNoise returns the mean SNR improvement over the channels.
func (s *Spectral) SuppressNoise(
	ctx context.Context,
	input []byte,
	outputVoice []byte,
) (_ret float64, _err error) {
	logger.Tracef(ctx, "SuppressNoise, len:%d", len(input))
	defer func() { logger.Tracef(ctx, "/SuppressNoise, len:%d: %v", len(input), _err) }()

	if err := noisesuppression.CheckBuffers(s.FormatValue, input, outputVoice); err != nil {
		return 0, err
	}
	if len(input) == 0 {
		return 0, nil
	}

	samples, err := pcm.Decode(s.FormatValue.PCMFormat, input)
	if err != nil {
		return 0, fmt.Errorf("unable to decode the input: %w", err)
	}
	planes, err := planar.Planarize(s.FormatValue.Channels, samples)
	if err != nil {
		return 0, fmt.Errorf("unable to planarize the input: %w", err)
	}

	var (
		wg             sync.WaitGroup
		locker         sync.Mutex
		mErr           *multierror.Error
		improvementSum float64
	)
	for ch, plane := range planes {
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			enhanced, improvement, err := s.suppressOneChannel(ctx, plane)
			locker.Lock()
			defer locker.Unlock()
			if err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("channel %d: %w", ch, err))
				return
			}
			planes[ch] = enhanced
			improvementSum += improvement
		})
	}
	wg.Wait()
	if err := mErr.ErrorOrNil(); err != nil {
		return 0, err
	}

	samples, err = planar.Unplanarize(planes)
	if err != nil {
		return 0, fmt.Errorf("unable to unplanarize the output: %w", err)
	}
	encoded, err := pcm.Encode(s.FormatValue.PCMFormat, samples)
	if err != nil {
		return 0, fmt.Errorf("unable to encode the output: %w", err)
	}
	copy(outputVoice, encoded)
	return improvementSum / float64(len(planes)), nil
}

func (s *Spectral) suppressOneChannel(
	ctx context.Context,
	samples []float64,
) ([]float64, float64, error) {
	sampleRate := int(s.FormatValue.SampleRate)
	enhanced, err := s.Enhancer.Enhance(ctx, samples, sampleRate, s.Profile.String())
	if err != nil {
		return nil, 0, err
	}
	improvement, err := s.Enhancer.EstimateSNRImprovementForProfile(ctx, samples, enhanced, sampleRate, s.Profile.String())
	if err != nil {
		return nil, 0, err
	}
	return enhanced, improvement, nil
}
