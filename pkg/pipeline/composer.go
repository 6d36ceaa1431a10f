// Package pipeline chains the spectral stages of an enhancement profile
// and restores the output loudness afterwards.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/level"
)

// Observer receives an event after every stage.
type Observer interface {
	StageDone(profile Profile, stage string, duration time.Duration, degraded bool)
}

type ObserverNoop struct{}

var _ Observer = ObserverNoop{}

func (ObserverNoop) StageDone(Profile, string, time.Duration, bool) {}

// StageReport is what happened in a single stage of a run.
type StageReport struct {
	Name     string
	Duration time.Duration
	Degraded bool
	Err      error
}

// Result is the outcome of Composer.Run.
type Result struct {
	Profile Profile
	Output  []float64
	Stages  []StageReport

	// AppliedGainDB is the level correction applied after the stages.
	AppliedGainDB float64
}

// Degraded reports whether any stage passed its input through.
func (r *Result) Degraded() bool {
	for _, s := range r.Stages {
		if s.Degraded {
			return true
		}
	}
	return false
}

// Composer runs profiles. It is safe for concurrent use.
type Composer struct {
	Table    Table
	Observer Observer
}

func NewComposer(table Table, observer Observer) (*Composer, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = ObserverNoop{}
	}
	return &Composer{
		Table:    table,
		Observer: observer,
	}, nil
}

// Run passes w through the stages of the profile, in order, and brings the
// result to the loudness of w (see level.EnsureLevel).
//
// A stage that fails with a non-fatal error, or whose output is not
// finite, is skipped: its input goes to the next stage. w is not modified.
func (c *Composer) Run(
	ctx context.Context,
	w []float64,
	sampleRate audio.SampleRate,
	profile Profile,
) (_ret *Result, _err error) {
	logger.Tracef(ctx, "Run(%d samples, %d Hz, %s)", len(w), sampleRate, profile)
	defer func() { logger.Tracef(ctx, "/Run(%s): %v", profile, _err) }()

	params, err := c.Table.Params(profile)
	if err != nil {
		return nil, err
	}
	if sampleRate == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "Composer.Run", fmt.Errorf("zero sample rate"))
	}
	if !dsp.IsFinite(w) {
		return nil, audio.NewError(audio.KindInvalidInput, "Composer.Run", fmt.Errorf("non-finite samples"))
	}

	result := &Result{
		Profile: profile,
		Stages:  make([]StageReport, 0, len(params.Stages)),
	}
	cur := w
	for idx, stage := range params.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		startTS := time.Now()
		res := stage.Process(ctx, cur, sampleRate)
		duration := time.Since(startTS)

		if res.Err != nil && !res.Degraded {
			return nil, fmt.Errorf("stage #%d (%s) failed: %w", idx, stage.Name(), res.Err)
		}
		output, err := fitLength(ctx, stage.Name(), res.Output, len(cur))
		if err != nil {
			return nil, err
		}
		if !res.Degraded && !dsp.IsFinite(output) {
			res = degraded(cur, errDegenerate("Composer.Run", "stage %s produced non-finite samples", stage.Name()))
			output = cur
		}
		if res.Degraded {
			logger.Warnf(ctx, "stage #%d (%s) of profile %s degraded to a passthrough: %v", idx, stage.Name(), profile, res.Err)
			output = cur
		}

		logger.Debugf(ctx, "stage #%d (%s) took %v", idx, stage.Name(), duration)
		c.Observer.StageDone(profile, stage.Name(), duration, res.Degraded)
		result.Stages = append(result.Stages, StageReport{
			Name:     stage.Name(),
			Duration: duration,
			Degraded: res.Degraded,
			Err:      res.Err,
		})
		cur = output
	}

	result.Output, result.AppliedGainDB = level.EnsureLevel(w, cur, params.MinGainDB, params.MaxBoostDB)
	logger.Debugf(ctx, "profile %s: level correction %.2f dB", profile, result.AppliedGainDB)
	return result, nil
}

// fitLength truncates or zero-pads the output of a stage to the expected
// length. An empty output for a non-empty input cannot be fixed.
func fitLength(ctx context.Context, stage string, output []float64, expected int) ([]float64, error) {
	if len(output) == expected {
		return output, nil
	}
	if len(output) == 0 {
		return nil, audio.NewError(audio.KindShapeMismatch, "Composer.Run", fmt.Errorf("stage %s returned no samples, expected %d", stage, expected))
	}
	logger.Warnf(ctx, "stage %s returned %d samples instead of %d; fixing the length", stage, len(output), expected)
	result := make([]float64, expected)
	copy(result, output)
	return result, nil
}
