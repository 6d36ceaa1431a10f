package noiseestimate

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

// Quietest is the mean of the Frames lowest-energy frames.
type Quietest struct {
	Frames        int
	MedianSize    int
	FloorFraction float64
}

var _ Estimator = (*Quietest)(nil)

// NewQuietest returns the estimator averaging the quietest frames that add
// up to the given duration (in seconds).
func NewQuietest(seconds float64, sampleRate audio.SampleRate, hopLength int) *Quietest {
	return &Quietest{
		Frames:        max(1, int(seconds*float64(sampleRate)/float64(hopLength))),
		MedianSize:    5,
		FloorFraction: 0.01,
	}
}

func (e *Quietest) Estimate(
	_ context.Context,
	mag [][]float64,
	mask *vad.Mask,
) (Profile, error) {
	bins, err := validate("Quietest.Estimate", mag, mask)
	if err != nil {
		return nil, err
	}
	if e.Frames <= 0 {
		return nil, audio.NewError(audio.KindConfiguration, "Quietest.Estimate", fmt.Errorf("non-positive frame count %d", e.Frames))
	}

	count := min(e.Frames, len(mag))
	result := meanOfFrames(mag, bins, dsp.ArgsortAscending(frameEnergies(mag))[:count])
	result = dsp.MedianFilter(result, e.MedianSize)
	return floorAt(result, e.FloorFraction, result.Max()), nil
}
