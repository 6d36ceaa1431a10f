package gain

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/noiseestimate"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
)

func policies() []Policy {
	return []Policy{
		&SpectralSubtraction{Alpha: 2, Beta: 0.1},
		&SpectralSubtraction{Alpha: 12, Beta: 0.00005, Floor: FloorRelativeToMagnitude},
		&Wiener{MinGain: 0.1, SubtractNoise: true},
		&Wiener{Exponent: 1.5, NoiseScale: 0.5},
		&VADAdaptiveSubtraction{Speech: Regime{5, 0.005}, Silence: Regime{8, 0.0001}},
		&BiasedSubtraction{Alpha: 3.5, Beta: 0.02, SilenceBoost: 2},
		&SpectralGate{ThresholdDB: -35, Sigma: 2},
		&HarmonicEmphasis{MedianSize: 11, Mix: 0.5, Cap: 1.5},
		&MultiBand{Bands: 4, AlphaStart: 2.5, AlphaStep: 0.3, Beta: 0.1},
		NewSpeechBandEmphasis(),
	}
}

func randomInput(seed int64, frames, bins int) Input {
	rng := rand.New(rand.NewSource(seed))
	in := Input{
		Magnitudes: make([][]float64, frames),
		Noise:      make(noiseestimate.Profile, bins),
		Mask:       &vad.Mask{Speech: make([]bool, frames), HopLength: 256},
		SampleRate: 16000,
		FFTSize:    (bins - 1) * 2,
	}
	for f := range in.Magnitudes {
		in.Magnitudes[f] = make([]float64, bins)
		for b := range in.Magnitudes[f] {
			switch rng.Intn(10) {
			case 0:
				in.Magnitudes[f][b] = 0
			default:
				in.Magnitudes[f][b] = rng.ExpFloat64() * math.Pow(10, rng.Float64()*4-2)
			}
		}
		in.Mask.Speech[f] = rng.Intn(2) == 0
	}
	for b := range in.Noise {
		in.Noise[b] = math.Max(rng.ExpFloat64()*0.1, noiseestimate.MinNoise)
	}
	return in
}

func TestGainBounds(t *testing.T) {
	in := randomInput(0, 60, 129)
	for _, p := range policies() {
		t.Run(p.String(), func(t *testing.T) {
			g, err := p.ComputeGain(context.Background(), in)
			require.NoError(t, err)
			require.Len(t, g, len(in.Magnitudes))
			for f := range g {
				require.Len(t, g[f], len(in.Magnitudes[f]))
				for b, v := range g[f] {
					require.False(t, math.IsNaN(v), "frame %d bin %d", f, b)
					require.GreaterOrEqual(t, v, 0.0, "frame %d bin %d", f, b)
					require.LessOrEqual(t, v, MaxGain+1e-12, "frame %d bin %d", f, b)
				}
			}
		})
	}
}

func TestGainWithoutMask(t *testing.T) {
	in := randomInput(1, 20, 33)
	in.Mask = nil
	for _, p := range policies() {
		t.Run(p.String(), func(t *testing.T) {
			_, err := p.ComputeGain(context.Background(), in)
			require.NoError(t, err)
		})
	}
}

func TestGainShapeMismatch(t *testing.T) {
	in := randomInput(2, 10, 33)
	in.Noise = in.Noise[:10]
	_, err := (&SpectralSubtraction{Alpha: 2, Beta: 0.1}).ComputeGain(context.Background(), in)
	require.ErrorIs(t, err, audio.ErrShapeMismatch)
}

func single(mag float64, noise float64, isSpeech bool) Input {
	return Input{
		Magnitudes: [][]float64{{mag}},
		Noise:      noiseestimate.Profile{noise},
		Mask:       &vad.Mask{Speech: []bool{isSpeech}, HopLength: 256},
		SampleRate: 16000,
		FFTSize:    1024,
	}
}

func gainOf(t *testing.T, p Policy, in Input) float64 {
	g, err := p.ComputeGain(context.Background(), in)
	require.NoError(t, err)
	return g[0][0]
}

func TestSpectralSubtraction(t *testing.T) {
	p := &SpectralSubtraction{Alpha: 2, Beta: 0.1}
	assert.InDelta(t, 0.8, gainOf(t, p, single(10, 1, true)), 1e-12)
	// floor: 0.1 * noise / mag
	assert.InDelta(t, 0.05, gainOf(t, p, single(2, 1, true)), 1e-12)
	// the floor never amplifies
	assert.Equal(t, 1.0, gainOf(t, p, single(0.01, 1, true)))
	assert.Equal(t, 1.0, gainOf(t, p, single(0, 1, true)))

	p = &SpectralSubtraction{Alpha: 2, Beta: 0.1, Floor: FloorRelativeToMagnitude}
	assert.InDelta(t, 0.1, gainOf(t, p, single(2, 1, true)), 1e-12)
}

func TestWiener(t *testing.T) {
	p := &Wiener{MinGain: 0.1, SubtractNoise: true}
	// signal power 4-1=3, noise power 1
	assert.InDelta(t, 0.75, gainOf(t, p, single(2, 1, true)), 1e-9)
	assert.InDelta(t, 0.1, gainOf(t, p, single(0.5, 1, true)), 1e-12)

	p = &Wiener{Exponent: 2, NoiseScale: 0.5}
	// 1 / (1 + 0.25), squared
	assert.InDelta(t, 0.64, gainOf(t, p, single(1, 1, true)), 1e-9)
}

func TestVADAdaptiveSubtraction(t *testing.T) {
	p := &VADAdaptiveSubtraction{Speech: Regime{5, 0.005}, Silence: Regime{8, 0.0001}}
	assert.InDelta(t, 0.5, gainOf(t, p, single(10, 1, true)), 1e-12)
	assert.InDelta(t, 0.2, gainOf(t, p, single(10, 1, false)), 1e-12)
	assert.InDelta(t, 0.0001, gainOf(t, p, single(5, 1, false)), 1e-12)
}

func TestBiasedSubtraction(t *testing.T) {
	p := &BiasedSubtraction{Alpha: 3.5, Beta: 0.02, SilenceBoost: 2}
	assert.InDelta(t, 0.65, gainOf(t, p, single(10, 1, true)), 1e-12)
	assert.InDelta(t, 0.45, gainOf(t, p, single(10, 1, false)), 1e-12)
	assert.InDelta(t, 0.02/3, gainOf(t, p, single(3, 1, true)), 1e-12)
}

func TestSpectralGate(t *testing.T) {
	mag := make([][]float64, 40)
	for f := range mag {
		mag[f] = []float64{1, 0}
	}
	mag[20][0] = 0.001 // -60 dB
	g, err := (&SpectralGate{ThresholdDB: -35, Sigma: 0}).ComputeGain(context.Background(), Input{Magnitudes: mag})
	require.NoError(t, err)
	assert.Equal(t, 0.0, g[20][0])
	assert.Equal(t, 1.0, g[19][0])
	// an all-zero bin is gated completely
	assert.Equal(t, 0.0, g[0][1])

	g, err = (&SpectralGate{ThresholdDB: -35, Sigma: 2}).ComputeGain(context.Background(), Input{Magnitudes: mag})
	require.NoError(t, err)
	assert.Greater(t, g[20][0], 0.0)
	assert.Less(t, g[20][0], 1.0)
	assert.Less(t, g[20][0], g[17][0])
}

func TestHarmonicEmphasis(t *testing.T) {
	mag := make([][]float64, 30)
	for f := range mag {
		mag[f] = []float64{1, 0}
		if f%7 == 0 {
			mag[f][1] = 1
		}
	}
	g, err := (&HarmonicEmphasis{MedianSize: 11, Mix: 0.5, Cap: 1.5}).ComputeGain(context.Background(), Input{Magnitudes: mag})
	require.NoError(t, err)
	// a stable bin is boosted, up to the global cap
	assert.InDelta(t, 1.2, g[10][0], 1e-12)
	// a sporadic bin has a zero running median
	assert.Equal(t, 1.0, g[14][1])
}

func TestMultiBand(t *testing.T) {
	p := &MultiBand{Bands: 4, AlphaStart: 2.5, AlphaStep: 0.3, Beta: 0.1}
	for band, alpha := range []float64{2.5, 2.2, 1.9, 1.6} {
		assert.InDelta(t, alpha, p.BandAlpha(band), 1e-12)
	}

	in := Input{
		Magnitudes: [][]float64{{10, 10, 10, 10, 10, 10, 10, 10, 10}},
		Noise:      noiseestimate.Profile{1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	g, err := p.ComputeGain(context.Background(), in)
	require.NoError(t, err)
	expected := []float64{0.75, 0.75, 0.78, 0.78, 0.81, 0.81, 0.84, 0.84, 0.84}
	for b := range expected {
		assert.InDelta(t, expected[b], g[0][b], 1e-12, "bin %d", b)
	}

	_, err = (&MultiBand{Bands: 20}).ComputeGain(context.Background(), in)
	require.ErrorIs(t, err, audio.ErrConfiguration)
}

func TestSpeechBandEmphasis(t *testing.T) {
	p := NewSpeechBandEmphasis()
	// 16 kHz, 2048-point FFT: 7.8125 Hz per bin
	weights := p.Weights(1025, 7.8125)
	at := func(hz float64) float64 { return weights[int(hz/7.8125)] }
	assert.InDelta(t, 0.025, at(40), 1e-12)
	assert.InDelta(t, 0.5, at(200), 1e-12)
	assert.InDelta(t, 0.25, at(400), 1e-12)
	assert.InDelta(t, 0.625, at(900), 1e-12)
	assert.InDelta(t, 0.875, at(1500), 1e-12)
	assert.InDelta(t, 1.0, at(3000), 1e-12)
	assert.InDelta(t, 0.25, at(6000), 1e-12)

	_, err := p.ComputeGain(context.Background(), Input{Magnitudes: [][]float64{{1}}})
	require.ErrorIs(t, err, audio.ErrConfiguration)
}

func TestApplyKeepsPhase(t *testing.T) {
	w := make([]float64, 4000)
	for idx := range w {
		w[idx] = math.Sin(float64(idx) / 5)
	}
	s, err := frametransform.Analyze(w, frametransform.Params{FFTSize: 256, HopLength: 64})
	require.NoError(t, err)

	g := newMatrix(s.NumFrames(), s.NumBins())
	for f := range g {
		for b := range g[f] {
			g[f][b] = 0.5
		}
	}
	scaled, err := Apply(s, g)
	require.NoError(t, err)
	phases, scaledPhases := s.Phases(), scaled.Phases()
	mags, scaledMags := s.Magnitudes(), scaled.Magnitudes()
	for f := range phases {
		for b := range phases[f] {
			if mags[f][b] > 1e-6 {
				require.InDelta(t, phases[f][b], scaledPhases[f][b], 1e-9)
			}
			require.InDelta(t, mags[f][b]/2, scaledMags[f][b], 1e-9)
		}
	}
}
