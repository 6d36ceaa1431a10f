package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/audiofile"
	"github.com/xaionaro-go/speechenhance/pkg/config"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

func writeTestWAV(t *testing.T, path string, n int) {
	rng := rand.New(rand.NewSource(1))
	samples := make([]float64, n)
	for idx := range samples {
		samples[idx] = 0.1*(2*rng.Float64()-1) + 0.3*math.Sin(2*math.Pi*250*float64(idx)/16000)
	}
	writeWAVSamples(t, path, samples)
}

func writeWAVSamples(t *testing.T, path string, samples []float64) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, audiofile.WriteWAV(f, &audiofile.Recording{
		Samples:    samples,
		SampleRate: 16000,
		Channels:   1,
	}, audio.PCMFormatS16LE))
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.wav")
	writeTestWAV(t, inputPath, 8000)

	t.Run("WAV to WAV with a report", func(t *testing.T) {
		cfg := config.Default()
		cfg.Profile = pipeline.ProfileLow
		outputPath := filepath.Join(dir, "out.wav")

		var reportBuf bytes.Buffer
		require.NoError(t, run(ctx, runParams{
			Config:       cfg,
			InputPath:    inputPath,
			OutputPath:   outputPath,
			Report:       true,
			ReportWriter: &reportBuf,
		}))

		f, err := os.Open(outputPath)
		require.NoError(t, err)
		defer f.Close()
		rec, err := audiofile.ReadWAV(f)
		require.NoError(t, err)
		assert.Len(t, rec.Samples, 8000)
		assert.Equal(t, audio.SampleRate(16000), rec.SampleRate)

		var r map[string]any
		require.NoError(t, json.Unmarshal(reportBuf.Bytes(), &r))
		assert.Equal(t, "low", r["profile"])
		assert.Contains(t, r, "snr_improvement_db")
		assert.Contains(t, r, "loudness")
		assert.NotContains(t, r, "classification")
		assert.Contains(t, r, "speech_onset_seconds")
	})

	t.Run("report carries the speech onset", func(t *testing.T) {
		// 2 s of silence, then a tone
		samples := make([]float64, 40000)
		for idx := 32000; idx < len(samples); idx++ {
			samples[idx] = 0.3 * math.Sin(2*math.Pi*250*float64(idx)/16000)
		}
		onsetInputPath := filepath.Join(dir, "onset.wav")
		writeWAVSamples(t, onsetInputPath, samples)

		cfg := config.Default()
		cfg.Profile = pipeline.ProfileLow
		var reportBuf bytes.Buffer
		require.NoError(t, run(ctx, runParams{
			Config:       cfg,
			InputPath:    onsetInputPath,
			OutputPath:   filepath.Join(dir, "onset_out.wav"),
			Report:       true,
			ReportWriter: &reportBuf,
		}))

		var r report
		require.NoError(t, json.Unmarshal(reportBuf.Bytes(), &r))
		require.NotNil(t, r.SpeechOnsetSeconds)
		assert.GreaterOrEqual(t, *r.SpeechOnsetSeconds, 1.5)
		assert.LessOrEqual(t, *r.SpeechOnsetSeconds, 2.05)
	})

	t.Run("classification picks the profile", func(t *testing.T) {
		cfg := config.Default()
		cfg.Classify = true
		cfg.Output.PCMFormat = audio.PCMFormatFloat32LE
		outputPath := filepath.Join(dir, "out.raw")

		var reportBuf bytes.Buffer
		require.NoError(t, run(ctx, runParams{
			Config:       cfg,
			InputPath:    inputPath,
			OutputPath:   outputPath,
			Report:       true,
			ReportWriter: &reportBuf,
		}))

		data, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		assert.Len(t, data, 8000*4)

		var r report
		require.NoError(t, json.Unmarshal(reportBuf.Bytes(), &r))
		require.NotNil(t, r.Classification)
		assert.Equal(t, r.Classification.Profile, r.Profile)
	})

	t.Run("float WAV output is rejected", func(t *testing.T) {
		cfg := config.Default()
		cfg.Profile = pipeline.ProfileLow
		cfg.Output.PCMFormat = audio.PCMFormatFloat32LE
		err := run(ctx, runParams{
			Config:     cfg,
			InputPath:  inputPath,
			OutputPath: filepath.Join(dir, "float.wav"),
		})
		assert.ErrorIs(t, err, audio.ErrConfiguration)
	})

	t.Run("missing input", func(t *testing.T) {
		err := run(ctx, runParams{
			Config:     config.Default(),
			InputPath:  filepath.Join(dir, "missing.wav"),
			OutputPath: filepath.Join(dir, "never.wav"),
		})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
