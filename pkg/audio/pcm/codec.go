// Package pcm converts raw PCM byte buffers to normalized float64 samples
// and back.
package pcm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// Sample returns the sample stored at the beginning of p, normalized to
// [-1, 1) for integer formats.
func Sample(f audio.PCMFormat, p []byte) float64 {
	switch f {
	case audio.PCMFormatU8:
		return (float64(p[0]) - 128) / 128
	case audio.PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / 32768
	case audio.PCMFormatS16BE:
		return float64(int16(binary.BigEndian.Uint16(p))) / 32768
	case audio.PCMFormatS24LE:
		return float64(signExtend24(uint32(p[0])|uint32(p[1])<<8|uint32(p[2])<<16)) / 8388608
	case audio.PCMFormatS24BE:
		return float64(signExtend24(uint32(p[2])|uint32(p[1])<<8|uint32(p[0])<<16)) / 8388608
	case audio.PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
	case audio.PCMFormatS32BE:
		return float64(int32(binary.BigEndian.Uint32(p))) / 2147483648
	case audio.PCMFormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case audio.PCMFormatFloat32BE:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
	case audio.PCMFormatFloat64LE:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case audio.PCMFormatFloat64BE:
		return math.Float64frombits(binary.BigEndian.Uint64(p))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

func signExtend24(v uint32) int32 {
	val := int32(v)
	if val&0x800000 != 0 {
		val |= -16777216
	}
	return val
}

// PutSample stores v at the beginning of p. Integer formats are clipped to
// their range.
func PutSample(f audio.PCMFormat, p []byte, v float64) {
	switch f {
	case audio.PCMFormatU8:
		p[0] = byte(clampInt(math.Round(v*128+128), 0, 255))
	case audio.PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(int16(clampInt(math.Round(v*32768), -32768, 32767))))
	case audio.PCMFormatS16BE:
		binary.BigEndian.PutUint16(p, uint16(int16(clampInt(math.Round(v*32768), -32768, 32767))))
	case audio.PCMFormatS24LE:
		val := int32(clampInt(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val)
		p[1] = byte(val >> 8)
		p[2] = byte(val >> 16)
	case audio.PCMFormatS24BE:
		val := int32(clampInt(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val >> 16)
		p[1] = byte(val >> 8)
		p[2] = byte(val)
	case audio.PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(int32(clampInt(math.Round(v*2147483648), -2147483648, 2147483647))))
	case audio.PCMFormatS32BE:
		binary.BigEndian.PutUint32(p, uint32(int32(clampInt(math.Round(v*2147483648), -2147483648, 2147483647))))
	case audio.PCMFormatFloat32LE:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case audio.PCMFormatFloat32BE:
		binary.BigEndian.PutUint32(p, math.Float32bits(float32(v)))
	case audio.PCMFormatFloat64LE:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	case audio.PCMFormatFloat64BE:
		binary.BigEndian.PutUint64(p, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

func clampInt(v, lo, hi float64) int64 {
	return int64(math.Max(lo, math.Min(hi, v)))
}

// Decode converts a PCM buffer into samples. The buffer length must be a
// multiple of the sample size.
func Decode(f audio.PCMFormat, data []byte) ([]float64, error) {
	sampleSize := int(f.Size())
	if sampleSize == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "pcm.Decode", fmt.Errorf("unsupported format %v", f))
	}
	if len(data)%sampleSize != 0 {
		return nil, audio.NewError(audio.KindInvalidInput, "pcm.Decode",
			fmt.Errorf("expected a buffer length that is a multiple of %d, but received %d", sampleSize, len(data)))
	}

	result := make([]float64, len(data)/sampleSize)
	for idx := range result {
		result[idx] = Sample(f, data[idx*sampleSize:])
	}
	return result, nil
}

// Encode converts samples into a PCM buffer.
func Encode(f audio.PCMFormat, samples []float64) ([]byte, error) {
	sampleSize := int(f.Size())
	if sampleSize == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "pcm.Encode", fmt.Errorf("unsupported format %v", f))
	}

	result := make([]byte, len(samples)*sampleSize)
	for idx, v := range samples {
		PutSample(f, result[idx*sampleSize:], v)
	}
	return result, nil
}
