package gain

import (
	"context"
	"fmt"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/dsp"
)

// HarmonicEmphasis boosts the part of each bin that is stable in time
// (its running median across frames), up to Cap.
type HarmonicEmphasis struct {
	MedianSize int
	Mix        float64
	Cap        float64
}

var _ Policy = (*HarmonicEmphasis)(nil)

func (p *HarmonicEmphasis) String() string {
	return fmt.Sprintf("harmonic_emphasis(median=%d, mix=%g, cap=%g)", p.MedianSize, p.Mix, p.Cap)
}

func (p *HarmonicEmphasis) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("HarmonicEmphasis.ComputeGain", false); err != nil {
		return nil, err
	}
	limit := math.Min(p.Cap, MaxGain)
	frames, bins := len(in.Magnitudes), in.bins()
	result := newMatrix(frames, bins)
	for b := 0; b < bins; b++ {
		col := dsp.Column(in.Magnitudes, b)
		harmonic := dsp.MedianFilter(col, p.MedianSize)
		for f, m := range col {
			if m <= 0 {
				result[f][b] = 1
				continue
			}
			result[f][b] = math.Min(1+p.Mix*harmonic[f]/m, limit)
		}
	}
	return result, nil
}
