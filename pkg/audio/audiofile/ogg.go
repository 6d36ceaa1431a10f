package audiofile

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// ReadOgg decodes an Ogg Vorbis stream.
func ReadOgg(r io.Reader) (*Recording, error) {
	oggReader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, audio.NewError(audio.KindInvalidInput, "ReadOgg", fmt.Errorf("unable to initialize a vorbis reader: %w", err))
	}

	var samples []float64
	buf := make([]float32, 8192*oggReader.Channels())
	for {
		n, err := oggReader.Read(buf)
		for _, v := range buf[:n] {
			samples = append(samples, float64(v))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to decode vorbis: %w", err)
		}
	}
	return &Recording{
		Samples:    samples,
		SampleRate: audio.SampleRate(oggReader.SampleRate()),
		Channels:   audio.Channel(oggReader.Channels()),
	}, nil
}
