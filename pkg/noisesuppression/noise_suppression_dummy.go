package noisesuppression

import (
	"context"
)

// Dummy passes the audio through unchanged.
type Dummy struct {
	FormatValue Format
}

var _ NoiseSuppression = (*Dummy)(nil)

func NewDummy(format Format) *Dummy {
	return &Dummy{
		FormatValue: format,
	}
}

func (s *Dummy) Close() error {
	return nil
}

func (s *Dummy) Format(context.Context) (Format, error) {
	return s.FormatValue, nil
}

func (s *Dummy) SuppressNoise(_ context.Context, input []byte, outputVoice []byte) (float64, error) {
	if err := CheckBuffers(s.FormatValue, input, outputVoice); err != nil {
		return 0, err
	}
	copy(outputVoice, input)
	return 0, nil
}
