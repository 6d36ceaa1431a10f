// Package frametransform implements the windowed overlap-add Fourier
// analysis and synthesis of a waveform.
//
// Frames are centred: the signal is padded by FFTSize/2 zeros at the
// beginning and with zeros at the end, so that every sample is covered by
// a frame where the window is non-zero.
package frametransform

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"gonum.org/v1/gonum/dsp/fourier"
)

// squaredWindowEpsilon is the overlap-added squared window below which a
// sample is considered not covered by any frame.
const squaredWindowEpsilon = 1e-10

// Transform performs analysis and synthesis for fixed Params.
//
// It is not safe for concurrent use.
type Transform struct {
	params Params
	window []float64
	fft    *fourier.FFT
	buf    []float64
}

func New(params Params) (*Transform, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Transform{
		params: params,
		window: params.windowCoefficients(),
		fft:    fourier.NewFFT(params.FFTSize),
		buf:    make([]float64, params.FFTSize),
	}, nil
}

func (t *Transform) Params() Params {
	return t.params
}

func (t *Transform) padded(w []float64) []float64 {
	frameCount := t.params.FrameCount(len(w))
	result := make([]float64, (frameCount-1)*t.params.HopLength+t.params.FFTSize)
	copy(result[t.params.FFTSize/2:], w)
	return result
}

// Frames returns the raw (not windowed) frames of w.
func (t *Transform) Frames(w []float64) [][]float64 {
	if len(w) == 0 {
		return nil
	}
	padded := t.padded(w)
	result := make([][]float64, t.params.FrameCount(len(w)))
	for f := range result {
		start := f * t.params.HopLength
		frame := make([]float64, t.params.FFTSize)
		copy(frame, padded[start:start+t.params.FFTSize])
		result[f] = frame
	}
	return result
}

// Analyze returns the spectrogram of w.
func (t *Transform) Analyze(w []float64) *Spectrogram {
	s := &Spectrogram{
		Params:       t.params,
		SignalLength: len(w),
	}
	if len(w) == 0 {
		return s
	}

	padded := t.padded(w)
	s.Data = make([][]complex128, t.params.FrameCount(len(w)))
	for f := range s.Data {
		start := f * t.params.HopLength
		for idx, coeff := range t.window {
			t.buf[idx] = padded[start+idx] * coeff
		}
		s.Data[f] = t.fft.Coefficients(nil, t.buf)
	}
	return s
}

// Synthesize reconstructs a waveform from s and truncates or zero-pads it
// to exactly outputLength samples.
func (t *Transform) Synthesize(s *Spectrogram, outputLength int) ([]float64, error) {
	if outputLength < 0 {
		return nil, audio.NewError(audio.KindConfiguration, "frametransform.Synthesize", fmt.Errorf("negative output length %d", outputLength))
	}
	result := make([]float64, outputLength)
	if s == nil || len(s.Data) == 0 || outputLength == 0 {
		return result, nil
	}
	if s.Params.FFTSize != t.params.FFTSize || s.Params.HopLength != t.params.HopLength {
		return nil, audio.NewError(audio.KindShapeMismatch, "frametransform.Synthesize",
			fmt.Errorf("spectrogram framing %d/%d differs from the transform's %d/%d",
				s.Params.FFTSize, s.Params.HopLength, t.params.FFTSize, t.params.HopLength))
	}

	fftSize := t.params.FFTSize
	hop := t.params.HopLength
	total := (len(s.Data)-1)*hop + fftSize
	acc := make([]float64, total)
	norm := make([]float64, total)
	scale := 1 / float64(fftSize)
	for f, spectrum := range s.Data {
		if len(spectrum) != t.params.Bins() {
			return nil, audio.NewError(audio.KindShapeMismatch, "frametransform.Synthesize",
				fmt.Errorf("frame %d has %d bins, expected %d", f, len(spectrum), t.params.Bins()))
		}
		t.fft.Sequence(t.buf, spectrum)
		start := f * hop
		for idx, coeff := range t.window {
			acc[start+idx] += t.buf[idx] * scale * coeff
			norm[start+idx] += coeff * coeff
		}
	}

	offset := fftSize / 2
	for idx := range result {
		pos := idx + offset
		if pos >= total {
			break
		}
		if norm[pos] > squaredWindowEpsilon {
			result[idx] = acc[pos] / norm[pos]
		}
	}
	return result, nil
}

// Analyze is a shorthand for New(params) followed by Analyze(w).
func Analyze(w []float64, params Params) (*Spectrogram, error) {
	t, err := New(params)
	if err != nil {
		return nil, err
	}
	return t.Analyze(w), nil
}

// Synthesize is a shorthand for New(s.Params) followed by Synthesize.
func Synthesize(s *Spectrogram, outputLength int) ([]float64, error) {
	t, err := New(s.Params)
	if err != nil {
		return nil, err
	}
	return t.Synthesize(s, outputLength)
}

// Frames is a shorthand for New(params) followed by Frames(w).
func Frames(w []float64, params Params) ([][]float64, error) {
	t, err := New(params)
	if err != nil {
		return nil, err
	}
	return t.Frames(w), nil
}

// Spectrogram is a frame-major matrix of complex spectra.
type Spectrogram struct {
	Params       Params
	Data         [][]complex128
	SignalLength int
}

func (s *Spectrogram) NumFrames() int {
	return len(s.Data)
}

func (s *Spectrogram) NumBins() int {
	return s.Params.Bins()
}

func (s *Spectrogram) Magnitudes() [][]float64 {
	result := make([][]float64, len(s.Data))
	for f, spectrum := range s.Data {
		row := make([]float64, len(spectrum))
		for b, c := range spectrum {
			row[b] = cmplx.Abs(c)
		}
		result[f] = row
	}
	return result
}

func (s *Spectrogram) Phases() [][]float64 {
	result := make([][]float64, len(s.Data))
	for f, spectrum := range s.Data {
		row := make([]float64, len(spectrum))
		for b, c := range spectrum {
			row[b] = cmplx.Phase(c)
		}
		result[f] = row
	}
	return result
}

// FromPolar returns a spectrogram with the same framing as s built from
// the given magnitudes and phases.
func (s *Spectrogram) FromPolar(mag, phase [][]float64) (*Spectrogram, error) {
	if len(mag) != len(phase) {
		return nil, audio.NewError(audio.KindShapeMismatch, "Spectrogram.FromPolar",
			fmt.Errorf("magnitude has %d frames, phase has %d", len(mag), len(phase)))
	}
	result := &Spectrogram{
		Params:       s.Params,
		Data:         make([][]complex128, len(mag)),
		SignalLength: s.SignalLength,
	}
	for f := range mag {
		if len(mag[f]) != len(phase[f]) {
			return nil, audio.NewError(audio.KindShapeMismatch, "Spectrogram.FromPolar",
				fmt.Errorf("frame %d: magnitude has %d bins, phase has %d", f, len(mag[f]), len(phase[f])))
		}
		row := make([]complex128, len(mag[f]))
		for b := range row {
			row[b] = cmplx.Rect(mag[f][b], phase[f][b])
		}
		result.Data[f] = row
	}
	return result, nil
}

// Scale multiplies every bin magnitude by gain[frame][bin] keeping the
// phase.
func (s *Spectrogram) Scale(gain [][]float64) (*Spectrogram, error) {
	if len(gain) != len(s.Data) {
		return nil, audio.NewError(audio.KindShapeMismatch, "Spectrogram.Scale",
			fmt.Errorf("gain has %d frames, spectrogram has %d", len(gain), len(s.Data)))
	}
	result := &Spectrogram{
		Params:       s.Params,
		Data:         make([][]complex128, len(s.Data)),
		SignalLength: s.SignalLength,
	}
	for f, spectrum := range s.Data {
		if len(gain[f]) != len(spectrum) {
			return nil, audio.NewError(audio.KindShapeMismatch, "Spectrogram.Scale",
				fmt.Errorf("frame %d: gain has %d bins, spectrogram has %d", f, len(gain[f]), len(spectrum)))
		}
		row := make([]complex128, len(spectrum))
		for b, c := range spectrum {
			g := gain[f][b]
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return nil, audio.NewError(audio.KindNumericalDegeneracy, "Spectrogram.Scale",
					fmt.Errorf("non-finite gain at frame %d bin %d", f, b))
			}
			row[b] = c * complex(g, 0)
		}
		result.Data[f] = row
	}
	return result, nil
}
