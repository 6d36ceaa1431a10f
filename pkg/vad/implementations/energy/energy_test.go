package energy

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	const sampleRate = 16000
	var w []float64
	for burst := 0; burst < 4; burst++ {
		for idx := 0; idx < sampleRate/2; idx++ {
			w = append(w, 0.3*math.Sin(2*math.Pi*1000*float64(burst*sampleRate+idx)/sampleRate))
		}
		w = append(w, make([]float64, sampleRate/2)...)
	}

	d, err := New(DefaultConfig())
	require.NoError(t, err)
	mask, err := d.Detect(context.Background(), w, sampleRate)
	require.NoError(t, err)
	require.Equal(t, d.Config.Frame.FrameCount(len(w)), mask.Len())
	assert.InDelta(t, 0.5, mask.SpeechFraction(), 0.1)
	assert.True(t, mask.Speech[8])
	assert.False(t, mask.Speech[24])
}

func TestDetectSilence(t *testing.T) {
	d, err := New(DefaultConfig())
	require.NoError(t, err)
	mask, err := d.Detect(context.Background(), make([]float64, 8000), 16000)
	require.NoError(t, err)
	assert.Zero(t, mask.SpeechFraction())
}
