// Package noisesuppression is the byte-oriented face of the enhancement:
// it takes and returns raw PCM buffers instead of float samples.
package noisesuppression

import (
	"context"
	"fmt"
	"io"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Format describes the layout of PCM buffers: channels are interleaved.
type Format struct {
	PCMFormat  audio.PCMFormat
	SampleRate audio.SampleRate
	Channels   audio.Channel
}

// FrameSize is the amount of bytes a sample of every channel takes.
func (f Format) FrameSize() uint {
	return f.PCMFormat.Size() * uint(f.Channels)
}

func (f Format) Validate() error {
	switch {
	case f.PCMFormat.Size() == 0:
		return audio.NewError(audio.KindConfiguration, "Format.Validate", fmt.Errorf("unsupported PCM format %v", f.PCMFormat))
	case f.SampleRate == 0:
		return audio.NewError(audio.KindConfiguration, "Format.Validate", fmt.Errorf("zero sample rate"))
	case f.Channels == 0:
		return audio.NewError(audio.KindConfiguration, "Format.Validate", fmt.Errorf("zero channels"))
	}
	return nil
}

type NoiseSuppression interface {
	io.Closer

	Format(context.Context) (Format, error)

	// SuppressNoise writes the denoised input into outputVoice (of the same
	// length) and returns the estimated SNR improvement in dB.
	SuppressNoise(ctx context.Context, input []byte, outputVoice []byte) (float64, error)
}

// CheckBuffers validates the buffers passed to SuppressNoise.
func CheckBuffers(format Format, input []byte, outputVoice []byte) error {
	if len(input) != len(outputVoice) {
		return audio.NewError(audio.KindShapeMismatch, "SuppressNoise",
			fmt.Errorf("lengths of input and output slices are not equal: %d != %d", len(input), len(outputVoice)))
	}
	frameSize := int(format.FrameSize())
	if frameSize == 0 || len(input)%frameSize != 0 {
		return audio.NewError(audio.KindInvalidInput, "SuppressNoise",
			fmt.Errorf("the size of the input is not a multiple of %d: %d", frameSize, len(input)))
	}
	return nil
}
