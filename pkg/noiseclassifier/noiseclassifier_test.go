package noiseclassifier

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

func sine(n int, sampleRate audio.SampleRate, freq, amplitude float64) []float64 {
	result := make([]float64, n)
	for idx := range result {
		result[idx] = amplitude * math.Sin(2*math.Pi*freq*float64(idx)/float64(sampleRate))
	}
	return result
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	c := New()

	t.Run("steady low hum is a machine", func(t *testing.T) {
		res, err := c.Classify(ctx, sine(32000, 16000, 100, 0.5), 16000)
		require.NoError(t, err)
		assert.Less(t, res.Features.CentroidMean, 2000.0)
		assert.Less(t, res.Features.CentroidVariance, 500.0)
		assert.Less(t, res.Features.ZeroCrossingRate, 0.08)
		assert.Equal(t, LabelHouseholdAppliance, res.Label, "%+v", res)
		assert.Equal(t, 80, res.Scores[LabelVehicles])
		assert.Equal(t, pipeline.ProfileMaximum, res.Profile)
		assert.Equal(t, 8.0, res.Confidence)
	})

	t.Run("quiet mid-band sound is a voice", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		x := sine(16000, 16000, 1000, 0.1)
		for idx := range x {
			x[idx] += 0.02 * (2*rng.Float64() - 1)
		}
		res, err := c.Classify(ctx, x, 16000)
		require.NoError(t, err)
		assert.Equal(t, LabelVerbalHuman, res.Label, "%+v", res)
		assert.Equal(t, 105, res.Scores[LabelVerbalHuman])
		assert.Equal(t, pipeline.ProfileMedium, res.Profile)
	})

	t.Run("high tone is a broadcast, at any sample rate", func(t *testing.T) {
		res, err := c.Classify(ctx, sine(48000, 48000, 6000, 0.5), 48000)
		require.NoError(t, err)
		assert.Greater(t, res.Features.CentroidMean, 4000.0)
		assert.Equal(t, LabelTVnRadio, res.Label, "%+v", res)
		assert.Equal(t, pipeline.ProfileHigh, res.Profile)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := c.Classify(ctx, nil, 16000)
		assert.ErrorIs(t, err, audio.ErrInvalidInput)
		_, err = c.Classify(ctx, []float64{0, math.NaN()}, 16000)
		assert.ErrorIs(t, err, audio.ErrInvalidInput)
		_, err = c.Classify(ctx, []float64{0, 1}, 0)
		assert.ErrorIs(t, err, audio.ErrConfiguration)
	})
}

func TestScore(t *testing.T) {
	for _, tc := range []struct {
		name     string
		features Features
		label    Label
	}{
		{"distant vehicle", Features{CentroidMean: 150, CentroidVariance: 100, ZeroCrossingRate: 0.01, RMS: 0.05}, LabelVehicles},
		{"buzzing appliance", Features{CentroidMean: 1500, CentroidVariance: 100, ZeroCrossingRate: 0.2, RMS: 0.05}, LabelHouseholdAppliance},
		{"variable low sound", Features{CentroidMean: 1500, CentroidVariance: 5000, ZeroCrossingRate: 0.2, RMS: 0.5}, LabelVerbalHuman},
		{"bright loud sound", Features{CentroidMean: 5000, CentroidVariance: 5000, ZeroCrossingRate: 0.4, RMS: 0.5}, LabelTVnRadio},
	} {
		t.Run(tc.name, func(t *testing.T) {
			label, confidence := best(Score(tc.features))
			assert.Equal(t, tc.label, label)
			assert.LessOrEqual(t, confidence, 95.0)
			assert.Greater(t, confidence, 0.0)
		})
	}
}

func TestBestTieBreak(t *testing.T) {
	label, confidence := best(map[Label]int{
		LabelTVnRadio:           80,
		LabelVehicles:           80,
		LabelHouseholdAppliance: 10,
	})
	assert.Equal(t, LabelVehicles, label)
	assert.Equal(t, 8.0, confidence)

	_, confidence = best(map[Label]int{LabelVerbalHuman: 5000})
	assert.Equal(t, 95.0, confidence)
}
