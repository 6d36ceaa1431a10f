package features

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

const sampleRate = 16000

func toneBursts(freqs []float64, amplitude float64, bursts int) []float64 {
	var result []float64
	for burst := 0; burst < bursts; burst++ {
		for idx := 0; idx < sampleRate/2; idx++ {
			ts := float64(burst*sampleRate+idx) / sampleRate
			var v float64
			for _, freq := range freqs {
				v += amplitude * math.Sin(2*math.Pi*freq*ts)
			}
			result = append(result, v)
		}
		result = append(result, make([]float64, sampleRate/2)...)
	}
	return result
}

func TestDetectAlternatingTone(t *testing.T) {
	ctx := context.Background()
	d, err := New(DefaultConfig())
	require.NoError(t, err)

	for name, freqs := range map[string][]float64{
		"440 Hz":         {440},
		"200 and 400 Hz": {200, 400},
		"1 kHz":          {1000},
	} {
		t.Run(name, func(t *testing.T) {
			w := toneBursts(freqs, 0.3, 4)
			mask, err := d.Detect(ctx, w, sampleRate)
			require.NoError(t, err)
			require.Equal(t, d.Config.Frame.FrameCount(len(w)), mask.Len())
			require.Len(t, mask.Score, mask.Len())

			fraction := mask.SpeechFraction()
			assert.GreaterOrEqual(t, fraction, 0.35)
			assert.LessOrEqual(t, fraction, 0.65)

			// the middle of the first burst and of the first gap
			assert.True(t, mask.Speech[8])
			assert.False(t, mask.Speech[24])
		})
	}
}

func TestDetectSilence(t *testing.T) {
	d, err := New(DefaultConfig())
	require.NoError(t, err)

	mask, err := d.Detect(context.Background(), make([]float64, sampleRate), sampleRate)
	require.NoError(t, err)
	require.NotZero(t, mask.Len())
	assert.Zero(t, mask.SpeechFraction())
}

func TestDetectEmpty(t *testing.T) {
	d, err := New(DefaultConfig())
	require.NoError(t, err)

	mask, err := d.Detect(context.Background(), nil, sampleRate)
	require.NoError(t, err)
	assert.Zero(t, mask.Len())
}

func TestDetectNoiseDoesNotFail(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	w := make([]float64, 3*sampleRate)
	for idx := range w {
		w[idx] = rng.Float64() - 0.5
	}
	cfg := DefaultConfig()
	cfg.ThresholdPercentile = 50
	cfg.Frame.FFTSize = 1024
	cfg.Frame.HopLength = 256
	d, err := New(cfg)
	require.NoError(t, err)

	mask, err := d.Detect(context.Background(), w, sampleRate)
	require.NoError(t, err)
	assert.Equal(t, cfg.Frame.FrameCount(len(w)), mask.Len())
}

func TestNewValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Energy = 0.9
	_, err := New(cfg)
	require.ErrorIs(t, err, audio.ErrConfiguration)

	cfg = DefaultConfig()
	cfg.Frame.HopLength = 0
	_, err = New(cfg)
	require.ErrorIs(t, err, audio.ErrConfiguration)

	cfg = DefaultConfig()
	cfg.ThresholdPercentile = 120
	_, err = New(cfg)
	require.ErrorIs(t, err, audio.ErrConfiguration)

	d, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = d.Detect(context.Background(), []float64{1}, 0)
	require.ErrorIs(t, err, audio.ErrConfiguration)
}

func TestScoreClipsFeatureDomains(t *testing.T) {
	d, err := New(DefaultConfig())
	require.NoError(t, err)

	score := d.score(&frameFeatures{
		energyDB: []float64{-60, -20},
		zcr:      []float64{0.1, 0.3},
		centroid: []float64{0, 10000},
		flatness: []float64{1, 0},
		hnrDB:    []float64{-40, 50},
	})
	require.Len(t, score, 2)
	assert.InDelta(t, 0, score[0], 1e-9)
	assert.InDelta(t, 1, score[1], 1e-9)
}
