package audiofile

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcm"
)

// ReadRaw decodes headerless interleaved PCM.
func ReadRaw(
	r io.Reader,
	format audio.PCMFormat,
	sampleRate audio.SampleRate,
	channels audio.Channel,
) (*Recording, error) {
	if sampleRate == 0 || channels == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "ReadRaw", fmt.Errorf("sample rate and channels must be set, got %d Hz %d channels", sampleRate, channels))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read the input: %w", err)
	}
	frameSize := int(format.Size()) * int(channels)
	if frameSize > 0 {
		data = data[:len(data)-len(data)%frameSize]
	}
	samples, err := pcm.Decode(format, data)
	if err != nil {
		return nil, err
	}
	return &Recording{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

func WriteRaw(w io.Writer, rec *Recording, format audio.PCMFormat) error {
	data, err := pcm.Encode(format, rec.Samples)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write the output: %w", err)
	}
	return nil
}
