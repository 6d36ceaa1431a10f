package audiofile

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

const wavFormatPCM = 1

func ReadWAV(r io.ReadSeeker) (*Recording, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, audio.NewError(audio.KindInvalidInput, "ReadWAV", fmt.Errorf("invalid WAV file"))
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, audio.NewError(audio.KindInvalidInput, "ReadWAV", fmt.Errorf("unsupported WAV audio format %d, only integer PCM is supported", decoder.WavAudioFormat))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to read the PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, audio.NewError(audio.KindInvalidInput, "ReadWAV", fmt.Errorf("invalid format: %+v", buf.Format))
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth < 8 || bitDepth > 32 {
		return nil, audio.NewError(audio.KindInvalidInput, "ReadWAV", fmt.Errorf("unsupported bit depth %d", bitDepth))
	}
	samples := make([]float64, len(buf.Data))
	for idx, v := range buf.Data {
		if bitDepth == 8 {
			samples[idx] = float64(v-128) / 128
			continue
		}
		samples[idx] = float64(v) / float64(int64(1)<<(bitDepth-1))
	}
	return &Recording{
		Samples:    samples,
		SampleRate: audio.SampleRate(buf.Format.SampleRate),
		Channels:   audio.Channel(buf.Format.NumChannels),
	}, nil
}

func wavBitDepth(format audio.PCMFormat) (int, error) {
	switch format {
	case audio.PCMFormatU8:
		return 8, nil
	case audio.PCMFormatS16LE:
		return 16, nil
	case audio.PCMFormatS24LE:
		return 24, nil
	case audio.PCMFormatS32LE:
		return 32, nil
	default:
		return 0, audio.NewError(audio.KindConfiguration, "WriteWAV", fmt.Errorf("WAV output supports u8, s16le, s24le and s32le, got %v", format))
	}
}

// WriteWAV writes an integer PCM WAV file; samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, rec *Recording, format audio.PCMFormat) error {
	bitDepth, err := wavBitDepth(format)
	if err != nil {
		return err
	}

	data := make([]int, len(rec.Samples))
	scale := float64(int64(1) << (bitDepth - 1))
	for idx, v := range rec.Samples {
		v = math.Round(v * scale)
		v = math.Max(-scale, math.Min(scale-1, v))
		if bitDepth == 8 {
			v += 128
		}
		data[idx] = int(v)
	}

	encoder := wav.NewEncoder(w, int(rec.SampleRate), bitDepth, int(rec.Channels), wavFormatPCM)
	err = encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(rec.Channels),
			SampleRate:  int(rec.SampleRate),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("unable to write the samples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("unable to finalize the WAV file: %w", err)
	}
	return nil
}
