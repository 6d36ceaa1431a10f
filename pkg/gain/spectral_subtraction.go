package gain

import (
	"context"
	"fmt"
)

// FloorReference selects what the subtraction floor is relative to.
type FloorReference int

const (
	FloorRelativeToNoise = FloorReference(iota)
	FloorRelativeToMagnitude
)

func (r FloorReference) String() string {
	switch r {
	case FloorRelativeToNoise:
		return "noise"
	case FloorRelativeToMagnitude:
		return "magnitude"
	default:
		return fmt.Sprintf("unknown_floor_reference_%d", int(r))
	}
}

// SpectralSubtraction subtracts Alpha times the noise profile from the
// magnitude and floors the result at Beta times the noise (or the
// magnitude).
type SpectralSubtraction struct {
	Alpha float64
	Beta  float64
	Floor FloorReference
}

var _ Policy = (*SpectralSubtraction)(nil)

func (p *SpectralSubtraction) String() string {
	return fmt.Sprintf("spectral_subtraction(alpha=%g, beta=%g*%s)", p.Alpha, p.Beta, p.Floor)
}

func (p *SpectralSubtraction) ComputeGain(_ context.Context, in Input) (Matrix, error) {
	if err := in.validate("SpectralSubtraction.ComputeGain", true); err != nil {
		return nil, err
	}
	result := newMatrix(len(in.Magnitudes), in.bins())
	for f, row := range in.Magnitudes {
		for b, m := range row {
			n := in.Noise[b]
			floor := p.Beta * n
			if p.Floor == FloorRelativeToMagnitude {
				floor = p.Beta * m
			}
			result[f][b] = subtractionGain(m, p.Alpha*n, floor)
		}
	}
	return result, nil
}
