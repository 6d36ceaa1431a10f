package noiseestimate

import (
	"context"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// MinPercentile takes per bin the smaller of the minimum and a very low
// percentile, smoothed by a wide median filter. The floor is relative to
// the largest magnitude of the whole spectrogram.
type MinPercentile struct {
	Percentile    float64
	MedianSize    int
	FloorFraction float64
}

var _ Estimator = (*MinPercentile)(nil)

func NewMinPercentile() *MinPercentile {
	return &MinPercentile{
		Percentile:    2,
		MedianSize:    15,
		FloorFraction: 0.0005,
	}
}

func (e *MinPercentile) Estimate(
	_ context.Context,
	mag [][]float64,
	mask *vad.Mask,
) (Profile, error) {
	bins, err := validate("MinPercentile.Estimate", mag, mask)
	if err != nil {
		return nil, err
	}

	var peak float64
	result := make(Profile, bins)
	for b, col := range sortedColumns(mag, bins) {
		result[b] = math.Min(col[0], dsp.PercentileSorted(col, e.Percentile))
		peak = math.Max(peak, col[len(col)-1])
	}
	result = dsp.MedianFilter(result, e.MedianSize)
	return floorAt(result, e.FloorFraction, peak), nil
}
