package level

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, amplitude float64) []float64 {
	result := make([]float64, n)
	for i := range result {
		result[i] = amplitude * math.Sin(2*math.Pi*200*float64(i)/16000)
	}
	return result
}

func TestLoudness(t *testing.T) {
	x := sine(16000, 0.3)
	assert.InDelta(t, 20*math.Log10(0.3/math.Sqrt2), Loudness(x), 1e-3)
	assert.InDelta(t, 20*math.Log10(0.3), PeakDB(x), 1e-3)

	l := Analyze(x)
	assert.InDelta(t, 20*math.Log10(math.Sqrt2), l.HeadroomDB, 1e-3)
	assert.InDelta(t, 0.3, l.Peak, 1e-6)

	t.Run("silence does not produce infinities", func(t *testing.T) {
		assert.InDelta(t, -100, Loudness(make([]float64, 10)), 1e-6)
		assert.InDelta(t, -200, PeakDB(make([]float64, 10)), 1e-6)
		assert.InDelta(t, -100, Loudness(nil), 1e-6)
	})
}

func TestCompare(t *testing.T) {
	c := Compare(sine(16000, 0.3), sine(16000, 0.1))
	assert.InDelta(t, 20*math.Log10(1.0/3), c.DifferenceDB, 1e-3)
	assert.True(t, c.NeedsBoost)

	c = Compare(sine(16000, 0.3), sine(16000, 0.3*FromDB(-0.4)))
	assert.False(t, c.NeedsBoost)
}

func TestEnsureLevel(t *testing.T) {
	ref := sine(16000, 0.3)

	t.Run("boost is clamped to the maximum", func(t *testing.T) {
		out, applied := EnsureLevel(ref, sine(16000, 0.1), 0, 6)
		assert.Equal(t, 6.0, applied)
		assert.InDelta(t, 0.1*FromDB(6), Analyze(out).Peak, 1e-6)
	})

	t.Run("boost reaches the target", func(t *testing.T) {
		out, applied := EnsureLevel(ref, sine(16000, 0.2), 0, 6)
		assert.InDelta(t, 20*math.Log10(1.5), applied, 1e-3)
		assert.InDelta(t, Loudness(ref), Loudness(out), 1e-3)
	})

	t.Run("louder candidates are never attenuated", func(t *testing.T) {
		cand := sine(16000, 0.5)
		out, applied := EnsureLevel(ref, cand, 0, 6)
		assert.Zero(t, applied)
		assert.Equal(t, cand, out)
	})

	t.Run("clip protection wins over the target", func(t *testing.T) {
		out, applied := EnsureLevel(sine(16000, 2), sine(16000, 0.9), 0, 6)
		assert.Equal(t, 6.0, applied)
		assert.InDelta(t, ClipThreshold, Analyze(out).Peak, 1e-9)
	})

	t.Run("the input is not modified", func(t *testing.T) {
		cand := sine(100, 0.1)
		orig := append([]float64(nil), cand...)
		_, _ = EnsureLevel(ref, cand, 0, 6)
		assert.Equal(t, orig, cand)
	})

	t.Run("silence stays silent", func(t *testing.T) {
		out, _ := EnsureLevel(ref, make([]float64, 100), 0, 6)
		for _, v := range out {
			require.Zero(t, v)
		}
	})
}

func TestNormalizeToReference(t *testing.T) {
	ref := sine(16000, 0.3)
	out := NormalizeToReference(ref, sine(16000, 0.1), true)
	assert.InDelta(t, Loudness(ref), Loudness(out), 1e-3)

	out = NormalizeToReference(sine(16000, 2), sine(16000, 0.1), true)
	assert.InDelta(t, ReferenceClipThreshold, Analyze(out).Peak, 1e-9)

	out = NormalizeToReference(ref, sine(16000, 0.1), false)
	assert.InDelta(t, 0.3*PeakHeadroom, Analyze(out).Peak, 1e-6)

	out = NormalizeToReference(ref, make([]float64, 10), true)
	assert.Equal(t, make([]float64, 10), out)
}

func TestNormalizeRMS(t *testing.T) {
	out := NormalizeRMS(sine(16000, 0.1), -20)
	assert.InDelta(t, -20, Loudness(out), 1e-3)
	assert.Equal(t, make([]float64, 3), NormalizeRMS(make([]float64, 3), -20))
}

func TestReport(t *testing.T) {
	r := Report(sine(16000, 0.3), sine(16000, 0.1))
	assert.Equal(t, StatusLow, r.Improvement.Status)
	assert.InDelta(t, 20*math.Log10(1.0/3), r.Improvement.LoudnessDB, 1e-3)

	r = Report(sine(16000, 0.3), sine(16000, 0.3))
	assert.Equal(t, StatusGood, r.Improvement.Status)
	assert.InDelta(t, 0, r.Improvement.PeakDB, 1e-9)
}
