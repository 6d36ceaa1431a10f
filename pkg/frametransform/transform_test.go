package frametransform

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

func noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	result := make([]float64, n)
	for idx := range result {
		result[idx] = rng.Float64()*2 - 1
	}
	return result
}

func TestRoundTrip(t *testing.T) {
	for _, params := range []Params{
		{FFTSize: 512, HopLength: 160, Window: audio.WindowHann},
		{FFTSize: 1024, HopLength: 256, Window: audio.WindowHann},
		{FFTSize: 2048, HopLength: 512, Window: audio.WindowHamming},
		{FFTSize: 256, HopLength: 256, Window: audio.WindowRectangular},
	} {
		for _, n := range []int{1, 100, 1000, 16000, 16001} {
			t.Run(fmt.Sprintf("%d/%d %s n=%d", params.FFTSize, params.HopLength, params.Window, n), func(t *testing.T) {
				w := noise(int64(n), n)
				tr, err := New(params)
				require.NoError(t, err)

				s := tr.Analyze(w)
				require.Equal(t, params.FrameCount(n), s.NumFrames())
				for _, spectrum := range s.Data {
					require.Len(t, spectrum, params.FFTSize/2+1)
				}

				out, err := tr.Synthesize(s, n)
				require.NoError(t, err)
				require.Len(t, out, n)
				for idx := range w {
					require.InDelta(t, w[idx], out[idx], 1e-9, "sample %d", idx)
				}
			})
		}
	}
}

func TestSynthesizeLength(t *testing.T) {
	params := Params{FFTSize: 512, HopLength: 128}
	w := noise(1, 1000)
	s, err := Analyze(w, params)
	require.NoError(t, err)

	shorter, err := Synthesize(s, 500)
	require.NoError(t, err)
	require.Len(t, shorter, 500)
	assert.InDelta(t, w[499], shorter[499], 1e-9)

	longer, err := Synthesize(s, 5000)
	require.NoError(t, err)
	require.Len(t, longer, 5000)
	assert.Zero(t, longer[4999])
}

func TestPolarRoundTrip(t *testing.T) {
	params := Params{FFTSize: 256, HopLength: 64}
	w := noise(2, 2000)
	s, err := Analyze(w, params)
	require.NoError(t, err)

	rebuilt, err := s.FromPolar(s.Magnitudes(), s.Phases())
	require.NoError(t, err)
	out, err := Synthesize(rebuilt, len(w))
	require.NoError(t, err)
	for idx := range w {
		require.InDelta(t, w[idx], out[idx], 1e-9)
	}

	_, err = s.FromPolar(s.Magnitudes()[:1], s.Phases())
	require.ErrorIs(t, err, audio.ErrShapeMismatch)
}

func TestScale(t *testing.T) {
	params := Params{FFTSize: 256, HopLength: 64}
	w := noise(3, 1000)
	s, err := Analyze(w, params)
	require.NoError(t, err)

	half := make([][]float64, s.NumFrames())
	for f := range half {
		half[f] = make([]float64, s.NumBins())
		for b := range half[f] {
			half[f][b] = 0.5
		}
	}
	scaled, err := s.Scale(half)
	require.NoError(t, err)
	out, err := Synthesize(scaled, len(w))
	require.NoError(t, err)
	for idx := range w {
		require.InDelta(t, w[idx]/2, out[idx], 1e-9)
	}

	half[0][0] = math.NaN()
	_, err = s.Scale(half)
	require.ErrorIs(t, err, audio.ErrNumericalDegeneracy)
}

func TestSinePeakBin(t *testing.T) {
	params := Params{FFTSize: 1024, HopLength: 256}
	const sampleRate = 16000
	w := make([]float64, sampleRate)
	for idx := range w {
		w[idx] = math.Sin(2 * math.Pi * 1000 * float64(idx) / sampleRate)
	}
	s, err := Analyze(w, params)
	require.NoError(t, err)

	mag := s.Magnitudes()[s.NumFrames()/2]
	peak := 0
	for b := range mag {
		if mag[b] > mag[peak] {
			peak = b
		}
	}
	assert.Equal(t, 64, peak)
	assert.InDelta(t, 1000.0, params.BinFrequency(peak, sampleRate), 1e-9)
}

func TestFrames(t *testing.T) {
	params := Params{FFTSize: 8, HopLength: 4}
	w := []float64{1, 2, 3, 4, 5, 6}
	frames, err := Frames(w, params)
	require.NoError(t, err)
	require.Len(t, frames, params.FrameCount(len(w)))
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 2, 3, 4}, frames[0])
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 0, 0}, frames[1])
	assert.Equal(t, []float64{5, 6, 0, 0, 0, 0, 0, 0}, frames[2])
}

func TestEdgeCases(t *testing.T) {
	t.Run("empty input is a no-op", func(t *testing.T) {
		s, err := Analyze(nil, Params{FFTSize: 512, HopLength: 128})
		require.NoError(t, err)
		assert.Zero(t, s.NumFrames())
		out, err := Synthesize(s, 0)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	for _, params := range []Params{
		{FFTSize: 0, HopLength: 128},
		{FFTSize: -1, HopLength: 128},
		{FFTSize: 512, HopLength: 0},
		{FFTSize: 512, HopLength: -5},
		{FFTSize: 512, HopLength: 1024},
	} {
		t.Run(fmt.Sprintf("invalid %d/%d", params.FFTSize, params.HopLength), func(t *testing.T) {
			_, err := Analyze([]float64{1}, params)
			require.ErrorIs(t, err, audio.ErrConfiguration)
		})
	}
}

func BenchmarkAnalyzeSynthesize(b *testing.B) {
	for _, n := range []int{16000, 160000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			w := noise(0, n)
			tr, err := New(Params{FFTSize: 1024, HopLength: 256})
			require.NoError(b, err)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := tr.Synthesize(tr.Analyze(w), n)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
