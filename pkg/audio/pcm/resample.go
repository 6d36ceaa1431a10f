package pcm

import (
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Resample converts samples from one sample rate to another using linear
// interpolation. The output holds round(len(samples)*to/from) samples.
func Resample(samples []float64, from, to audio.SampleRate) []float64 {
	if from == to || from == 0 || to == 0 || len(samples) == 0 {
		result := make([]float64, len(samples))
		copy(result, samples)
		return result
	}

	ratio := float64(from) / float64(to)
	outLen := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	result := make([]float64, outLen)
	last := len(samples) - 1
	for idx := range result {
		pos := float64(idx) * ratio
		left := int(pos)
		if left >= last {
			result[idx] = samples[last]
			continue
		}
		frac := pos - float64(left)
		result[idx] = samples[left]*(1-frac) + samples[left+1]*frac
	}
	return result
}
