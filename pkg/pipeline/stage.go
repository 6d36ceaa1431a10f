package pipeline

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Stage is one step of a profile. A stage never modifies its input and
// returns an output of the same length.
type Stage interface {
	Name() string
	Process(ctx context.Context, w []float64, sampleRate audio.SampleRate) StageResult
}

// StageResult is the outcome of a Stage.
//
// A degraded stage has its input as Output and the reason in Err; the
// pipeline goes on with it. A non-degraded result with a non-nil Err is
// fatal for the whole request.
type StageResult struct {
	Output   []float64
	Degraded bool
	Err      error
}

func succeeded(output []float64) StageResult {
	return StageResult{Output: output}
}

// failed turns err into either a degraded passthrough or a fatal result
// depending on its kind.
func failed(input []float64, err error) StageResult {
	if audio.KindOf(err).IsFatal() {
		return StageResult{Err: err}
	}
	return degraded(input, err)
}

func degraded(input []float64, err error) StageResult {
	return StageResult{
		Output:   input,
		Degraded: true,
		Err:      err,
	}
}

func errDegenerate(op string, format string, args ...any) error {
	return audio.NewError(audio.KindNumericalDegeneracy, op, fmt.Errorf(format, args...))
}
