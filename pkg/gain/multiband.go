package gain

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// MultiBand splits the bins into Bands contiguous bands of equal width
// (the last one takes the remainder) and subtracts the noise with a
// per-band factor AlphaStart - band*AlphaStep, flooring at Beta times the
// noise.
type MultiBand struct {
	Bands      int
	AlphaStart float64
	AlphaStep  float64
	Beta       float64
}

var _ Policy = (*MultiBand)(nil)

func (p *MultiBand) String() string {
	return fmt.Sprintf("multiband(bands=%d, alpha=%g-%g*band, beta=%g)", p.Bands, p.AlphaStart, p.AlphaStep, p.Beta)
}

// BandAlpha is the over-subtraction factor of the given band.
func (p *MultiBand) BandAlpha(band int) float64 {
	return p.AlphaStart - float64(band)*p.AlphaStep
}

func (p *MultiBand) ComputeGain(ctx context.Context, in Input) (Matrix, error) {
	if err := in.validate("MultiBand.ComputeGain", true); err != nil {
		return nil, err
	}
	bins := in.bins()
	if p.Bands <= 0 || p.Bands > bins {
		return nil, audio.NewError(audio.KindConfiguration, "MultiBand.ComputeGain", fmt.Errorf("cannot split %d bins into %d bands", bins, p.Bands))
	}

	result := newMatrix(len(in.Magnitudes), bins)
	bandSize := bins / p.Bands
	var wg sync.WaitGroup
	for band := 0; band < p.Bands; band++ {
		start := band * bandSize
		end := start + bandSize
		if band == p.Bands-1 {
			end = bins
		}
		alpha := p.BandAlpha(band)
		logger.Tracef(ctx, "band %d: bins [%d, %d), alpha %g", band, start, end, alpha)
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			for f, row := range in.Magnitudes {
				for b := start; b < end; b++ {
					n := in.Noise[b]
					result[f][b] = subtractionGain(row[b], alpha*n, p.Beta*n)
				}
			}
		})
	}
	wg.Wait()
	return result, nil
}
