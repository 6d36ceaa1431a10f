package noiseestimate

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// Leading is the mean of the first Frames frames; it assumes the recording
// starts before the speech does.
type Leading struct {
	Frames        int
	FloorFraction float64
}

var _ Estimator = (*Leading)(nil)

func NewLeading(frames int) *Leading {
	return &Leading{
		Frames: frames,
	}
}

func (e *Leading) Estimate(
	_ context.Context,
	mag [][]float64,
	mask *vad.Mask,
) (Profile, error) {
	bins, err := validate("Leading.Estimate", mag, mask)
	if err != nil {
		return nil, err
	}
	if e.Frames <= 0 {
		return nil, audio.NewError(audio.KindConfiguration, "Leading.Estimate", fmt.Errorf("non-positive frame count %d", e.Frames))
	}

	frames := make([]int, min(e.Frames, len(mag)))
	for idx := range frames {
		frames[idx] = idx
	}
	result := meanOfFrames(mag, bins, frames)
	return floorAt(result, e.FloorFraction, result.Max()), nil
}
