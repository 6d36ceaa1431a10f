package gain

import (
	"context"
	"fmt"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/dsp"
)

// SpectralGate zeroes bins that are more than ThresholdDB below the
// maximum of the same bin across time. The binary gate is smoothed along
// time per bin.
type SpectralGate struct {
	ThresholdDB float64
	Sigma       float64
}

var _ Policy = (*SpectralGate)(nil)

func (p *SpectralGate) String() string {
	return fmt.Sprintf("spectral_gate(%gdB, sigma=%g)", p.ThresholdDB, p.Sigma)
}

func (p *SpectralGate) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("SpectralGate.ComputeGain", false); err != nil {
		return nil, err
	}
	threshold := math.Pow(10, p.ThresholdDB/20)
	frames, bins := len(in.Magnitudes), in.bins()
	result := newMatrix(frames, bins)
	gate := make([]float64, frames)
	for b := 0; b < bins; b++ {
		col := dsp.Column(in.Magnitudes, b)
		var peak float64
		for _, v := range col {
			peak = math.Max(peak, v)
		}
		for f, v := range col {
			gate[f] = 0
			if v/(peak+1e-10) > threshold {
				gate[f] = 1
			}
		}
		for f, v := range dsp.GaussianFilter(gate, p.Sigma) {
			result[f][b] = v
		}
	}
	return result, nil
}
