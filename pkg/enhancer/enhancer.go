// Package enhancer is the entry point of the speech enhancement: it
// validates the request, runs the pipeline of the requested profile and
// estimates the resulting SNR improvement.
package enhancer

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
	"github.com/xaionaro-go/speechenhance/pkg/snr"
)

// Enhancer is safe for concurrent use; every request owns its buffers.
type Enhancer struct {
	Config   audio.Config
	Composer *pipeline.Composer

	observer pipeline.Observer
}

type Option func(*Enhancer)

// OptionObserver makes the enhancer report every stage to observer.
func OptionObserver(observer pipeline.Observer) Option {
	return func(e *Enhancer) {
		e.observer = observer
	}
}

func New(cfg audio.Config, opts ...Option) (*Enhancer, error) {
	e := &Enhancer{Config: cfg}
	for _, opt := range opts {
		opt(e)
	}

	table, err := pipeline.NewTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to build the profile table: %w", err)
	}
	e.Composer, err = pipeline.NewComposer(table, e.observer)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the pipeline: %w", err)
	}
	return e, nil
}

func (e *Enhancer) validateRequest(op string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return audio.NewError(audio.KindConfiguration, op, fmt.Errorf("sample rate must be positive, got %d", sampleRate))
	}
	if len(samples) > e.Config.MaxSamples {
		return audio.NewError(audio.KindResourceExhaustion, op, fmt.Errorf("%d samples exceed the limit of %d", len(samples), e.Config.MaxSamples))
	}
	for idx, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return audio.NewError(audio.KindInvalidInput, op, fmt.Errorf("sample #%d is not finite: %v", idx, v))
		}
	}
	return nil
}

// Enhance returns the denoised samples; the output has exactly as many
// samples as the input.
func (e *Enhancer) Enhance(
	ctx context.Context,
	samples []float64,
	sampleRate int,
	profileName string,
) ([]float64, error) {
	res, err := e.EnhanceWithReport(ctx, samples, sampleRate, profileName)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// EnhanceWithReport is Enhance which also returns what every stage did.
func (e *Enhancer) EnhanceWithReport(
	ctx context.Context,
	samples []float64,
	sampleRate int,
	profileName string,
) (_ret *pipeline.Result, _err error) {
	logger.Tracef(ctx, "Enhance(%d samples, %d Hz, %q)", len(samples), sampleRate, profileName)
	defer func() { logger.Tracef(ctx, "/Enhance(%q): %v", profileName, _err) }()

	profile, err := pipeline.ParseProfile(profileName)
	if err != nil {
		return nil, err
	}
	if err := e.validateRequest("Enhance", samples, sampleRate); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return &pipeline.Result{
			Profile: profile,
			Output:  []float64{},
		}, nil
	}

	res, err := e.Composer.Run(ctx, samples, audio.SampleRate(sampleRate), profile)
	if err != nil {
		return nil, fmt.Errorf("unable to enhance with profile %s: %w", profile, err)
	}
	if len(res.Output) != len(samples) {
		return nil, audio.NewError(audio.KindShapeMismatch, "Enhance", fmt.Errorf("got %d samples out of %d", len(res.Output), len(samples)))
	}
	return res, nil
}

// EstimateSNRImprovement is a heuristic estimate of how much enhanced
// improved over original, in dB, clamped to snr.DefaultRange.
func (e *Enhancer) EstimateSNRImprovement(
	ctx context.Context,
	original []float64,
	enhanced []float64,
	sampleRate int,
) (float64, error) {
	return e.estimateSNRImprovement(ctx, original, enhanced, sampleRate, snr.DefaultRange)
}

// EstimateSNRImprovementForProfile is EstimateSNRImprovement clamped to the
// range plausible for the given profile.
func (e *Enhancer) EstimateSNRImprovementForProfile(
	ctx context.Context,
	original []float64,
	enhanced []float64,
	sampleRate int,
	profileName string,
) (float64, error) {
	profile, err := pipeline.ParseProfile(profileName)
	if err != nil {
		return 0, err
	}
	params, err := e.Composer.Table.Params(profile)
	if err != nil {
		return 0, err
	}
	return e.estimateSNRImprovement(ctx, original, enhanced, sampleRate, params.SNRRange)
}

func (e *Enhancer) estimateSNRImprovement(
	ctx context.Context,
	original []float64,
	enhanced []float64,
	sampleRate int,
	r snr.Range,
) (float64, error) {
	if sampleRate <= 0 {
		return 0, audio.NewError(audio.KindConfiguration, "EstimateSNRImprovement", fmt.Errorf("sample rate must be positive, got %d", sampleRate))
	}
	return snr.EstimateImprovement(ctx, original, enhanced, audio.SampleRate(sampleRate), r)
}
