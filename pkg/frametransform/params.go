package frametransform

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

type Params struct {
	FFTSize   int
	HopLength int
	Window    audio.Window
}

func (p Params) Validate() error {
	switch {
	case p.FFTSize < 2:
		return audio.NewError(audio.KindConfiguration, "frametransform.Params", fmt.Errorf("FFT size must be at least 2, got %d", p.FFTSize))
	case p.HopLength <= 0:
		return audio.NewError(audio.KindConfiguration, "frametransform.Params", fmt.Errorf("hop length must be positive, got %d", p.HopLength))
	case p.HopLength > p.FFTSize:
		return audio.NewError(audio.KindConfiguration, "frametransform.Params", fmt.Errorf("hop length %d exceeds FFT size %d", p.HopLength, p.FFTSize))
	}
	return nil
}

// Bins is the amount of frequency bins of a real spectrum.
func (p Params) Bins() int {
	return p.FFTSize/2 + 1
}

// FrameCount is the amount of frames covering a signal of n samples.
func (p Params) FrameCount(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 + (n+p.HopLength-1)/p.HopLength
}

// BinFrequency returns the centre frequency of the given bin in Hz.
func (p Params) BinFrequency(bin int, sampleRate audio.SampleRate) float64 {
	return float64(bin) * float64(sampleRate) / float64(p.FFTSize)
}

func (p Params) windowCoefficients() []float64 {
	switch p.Window {
	case audio.WindowHamming:
		return window.Hamming(p.FFTSize)
	case audio.WindowRectangular:
		return window.Rectangular(p.FFTSize)
	default:
		return window.Hann(p.FFTSize)
	}
}
