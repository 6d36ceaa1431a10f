package noiseestimate

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// Combined mixes the per-bin minimum, two low percentiles and the mean of
// the non-speech frames.
type Combined struct {
	MinWeight       float64
	LowWeight       float64
	NonSpeechWeight float64
	ValleyWeight    float64

	LowPercentile    float64
	ValleyPercentile float64

	// MinNonSpeechFrames is the amount of non-speech frames required to
	// trust their mean; with fewer the low percentile is used instead.
	MinNonSpeechFrames int

	MedianSize    int
	FloorFraction float64
}

var _ Estimator = (*Combined)(nil)

func NewCombined() *Combined {
	return &Combined{
		MinWeight:          0.15,
		LowWeight:          0.20,
		NonSpeechWeight:    0.45,
		ValleyWeight:       0.20,
		LowPercentile:      5,
		ValleyPercentile:   3,
		MinNonSpeechFrames: 10,
		MedianSize:         7,
		FloorFraction:      0.001,
	}
}

func (e *Combined) Estimate(
	ctx context.Context,
	mag [][]float64,
	mask *vad.Mask,
) (Profile, error) {
	bins, err := validate("Combined.Estimate", mag, mask)
	if err != nil {
		return nil, err
	}

	columns := sortedColumns(mag, bins)
	nonSpeech := mask.NonSpeechFrames()
	useNonSpeech := len(nonSpeech) >= e.MinNonSpeechFrames
	var nonSpeechMean Profile
	if useNonSpeech {
		nonSpeechMean = meanOfFrames(mag, bins, nonSpeech)
	}
	logger.Debugf(ctx, "combined noise estimate: %d frames, %d non-speech (used: %t)", len(mag), len(nonSpeech), useNonSpeech)

	result := make(Profile, bins)
	for b, col := range columns {
		low := dsp.PercentileSorted(col, e.LowPercentile)
		silence := low
		if useNonSpeech {
			silence = nonSpeechMean[b]
		}
		result[b] = e.MinWeight*col[0] +
			e.LowWeight*low +
			e.NonSpeechWeight*silence +
			e.ValleyWeight*dsp.PercentileSorted(col, e.ValleyPercentile)
	}

	result = dsp.MedianFilter(result, e.MedianSize)
	return floorAt(result, e.FloorFraction, result.Max()), nil
}
