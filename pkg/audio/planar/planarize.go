// Package planar converts between interleaved multi-channel sample
// buffers and one buffer per channel.
package planar

import (
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Planarize splits interleaved samples (L R L R ...) into one slice per
// channel.
func Planarize(channels audio.Channel, input []float64) ([][]float64, error) {
	if channels == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "planar.Planarize", fmt.Errorf("zero channels"))
	}
	if len(input)%int(channels) != 0 {
		return nil, audio.NewError(audio.KindShapeMismatch, "planar.Planarize",
			fmt.Errorf("expected a length that is a multiple of %d, but received %d", channels, len(input)))
	}

	samplesPerChan := len(input) / int(channels)
	result := make([][]float64, channels)
	for ch := range result {
		plane := make([]float64, samplesPerChan)
		for samplePos := range plane {
			plane[samplePos] = input[samplePos*int(channels)+ch]
		}
		result[ch] = plane
	}
	return result, nil
}

// Unplanarize interleaves per-channel slices back into one buffer. All
// planes must be of the same length.
func Unplanarize(planes [][]float64) ([]float64, error) {
	if len(planes) == 0 {
		return nil, nil
	}
	samplesPerChan := len(planes[0])
	for ch, plane := range planes {
		if len(plane) != samplesPerChan {
			return nil, audio.NewError(audio.KindShapeMismatch, "planar.Unplanarize",
				fmt.Errorf("channel %d has %d samples, but channel 0 has %d", ch, len(plane), samplesPerChan))
		}
	}

	channels := len(planes)
	result := make([]float64, samplesPerChan*channels)
	for ch, plane := range planes {
		for samplePos, v := range plane {
			result[samplePos*channels+ch] = v
		}
	}
	return result, nil
}
