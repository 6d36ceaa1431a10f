package noiseestimate

import (
	"context"

	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// QuietFrames mixes the per-bin minimum, the mean of the quietest share of
// frames and a low percentile, then smooths the result across frequency.
type QuietFrames struct {
	MinWeight        float64
	QuietWeight      float64
	PercentileWeight float64

	QuietShare     float64
	MinQuietFrames int
	Percentile     float64

	MedianSize    int
	Sigma         float64
	FloorFraction float64
}

var _ Estimator = (*QuietFrames)(nil)

func NewQuietFrames() *QuietFrames {
	return &QuietFrames{
		MinWeight:        0.4,
		QuietWeight:      0.4,
		PercentileWeight: 0.2,
		QuietShare:       0.15,
		MinQuietFrames:   5,
		Percentile:       10,
		MedianSize:       7,
		Sigma:            2,
		FloorFraction:    0.001,
	}
}

func (e *QuietFrames) Estimate(
	_ context.Context,
	mag [][]float64,
	mask *vad.Mask,
) (Profile, error) {
	bins, err := validate("QuietFrames.Estimate", mag, mask)
	if err != nil {
		return nil, err
	}

	count := max(e.MinQuietFrames, int(float64(len(mag))*e.QuietShare))
	count = min(count, len(mag))
	quiet := meanOfFrames(mag, bins, dsp.ArgsortAscending(frameEnergies(mag))[:count])

	result := make(Profile, bins)
	for b, col := range sortedColumns(mag, bins) {
		result[b] = e.MinWeight*col[0] +
			e.QuietWeight*quiet[b] +
			e.PercentileWeight*dsp.PercentileSorted(col, e.Percentile)
	}

	result = dsp.MedianFilter(result, e.MedianSize)
	result = dsp.GaussianFilter(result, e.Sigma)
	return floorAt(result, e.FloorFraction, result.Max()), nil
}
