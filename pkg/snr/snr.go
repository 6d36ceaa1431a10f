// Package snr estimates how much an enhancement improved the
// signal-to-noise ratio.
//
// The estimate is a frame-energy heuristic: the loudest frames of the
// original are taken as signal and the quietest ones as noise, and the
// ratio between the two is compared before and after. It is a diagnostic
// figure, not a measurement.
package snr

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
)

const epsilon = 1e-10

// Range is the interval the improvement is clamped to.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

var DefaultRange = Range{Min: 0, Max: 30}

func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max {
		return audio.NewError(audio.KindConfiguration, "Range.Validate", fmt.Errorf("invalid range [%g, %g]", r.Min, r.Max))
	}
	return nil
}

func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Frame is the framing the frame energies are computed with.
var Frame = frametransform.Params{
	FFTSize:   1024,
	HopLength: 256,
	Window:    audio.WindowHann,
}

// One in ExtremeShare frames is taken as the noise (the quietest
// ones) and as the signal (the loudest ones).
const ExtremeShare = 5

func frameEnergies(x []float64) ([]float64, error) {
	s, err := frametransform.Analyze(x, Frame)
	if err != nil {
		return nil, err
	}
	result := make([]float64, s.NumFrames())
	for f, row := range s.Magnitudes() {
		for _, m := range row {
			result[f] += m * m
		}
	}
	return result, nil
}

func meanAt(x []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += x[i]
	}
	return sum / float64(len(idx))
}

// EstimateImprovement returns SNR_after - SNR_before in dB clamped to r.
// The frames classified as noise and as signal are chosen on the original
// and the same frames are used for both signals.
func EstimateImprovement(
	ctx context.Context,
	original []float64,
	enhanced []float64,
	sampleRate audio.SampleRate,
	r Range,
) (_ret float64, _err error) {
	logger.Tracef(ctx, "EstimateImprovement(%d samples, %d Hz)", len(original), sampleRate)
	defer func() { logger.Tracef(ctx, "/EstimateImprovement: %v %v", _ret, _err) }()

	if err := r.Validate(); err != nil {
		return 0, err
	}
	if sampleRate == 0 {
		return 0, audio.NewError(audio.KindConfiguration, "EstimateImprovement", fmt.Errorf("zero sample rate"))
	}
	if len(original) != len(enhanced) {
		return 0, audio.NewError(audio.KindShapeMismatch, "EstimateImprovement", fmt.Errorf("the original has %d samples, the enhanced signal has %d", len(original), len(enhanced)))
	}
	if !dsp.IsFinite(original) || !dsp.IsFinite(enhanced) {
		return 0, audio.NewError(audio.KindInvalidInput, "EstimateImprovement", fmt.Errorf("non-finite samples"))
	}
	if len(original) == 0 {
		return r.Clamp(0), nil
	}

	energyOrig, err := frameEnergies(original)
	if err != nil {
		return 0, err
	}
	energyEnh, err := frameEnergies(enhanced)
	if err != nil {
		return 0, err
	}

	order := dsp.ArgsortAscending(energyOrig)
	count := max(1, len(order)/ExtremeShare)
	quiet := order[:count]
	loud := order[len(order)-count:]

	before := 10 * math.Log10((meanAt(energyOrig, loud)+epsilon)/(meanAt(energyOrig, quiet)+epsilon))
	after := 10 * math.Log10((meanAt(energyEnh, loud)+epsilon)/(meanAt(energyEnh, quiet)+epsilon))
	logger.Debugf(ctx, "SNR before %.2f dB, after %.2f dB", before, after)
	return r.Clamp(after - before), nil
}
