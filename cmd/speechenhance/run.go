package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/audiofile"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcm"
	"github.com/xaionaro-go/speechenhance/pkg/config"
	"github.com/xaionaro-go/speechenhance/pkg/enhancer"
	"github.com/xaionaro-go/speechenhance/pkg/level"
	"github.com/xaionaro-go/speechenhance/pkg/noiseclassifier"
	"github.com/xaionaro-go/speechenhance/pkg/noisesuppression"
	"github.com/xaionaro-go/speechenhance/pkg/noisesuppression/implementations/spectral"
	"github.com/xaionaro-go/speechenhance/pkg/noisesuppressionstream"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
	"github.com/xaionaro-go/speechenhance/pkg/vad/implementations/features"
)

const stdio = "-"

// processingFormat is lossless, so the enhanced samples reach the output
// encoder unchanged.
const processingFormat = audio.PCMFormatFloat64LE

// minSpeechDuration is the shortest voiced run reported as the speech onset.
const minSpeechDuration = 200 * time.Millisecond

type rawFormat struct {
	PCMFormat  audio.PCMFormat
	SampleRate audio.SampleRate
	Channels   audio.Channel
}

type runParams struct {
	Config          config.Config
	Observer        pipeline.Observer
	InputPath       string
	OutputPath      string
	InputContainer  audiofile.Container
	OutputContainer audiofile.Container
	RawInput        rawFormat
	Report          bool
	ReportWriter    io.Writer
}

type report struct {
	Profile          pipeline.Profile                `json:"profile"`
	Classification   *noiseclassifier.Classification `json:"classification,omitempty"`
	SNRImprovementDB float64                         `json:"snr_improvement_db"`
	Loudness         level.LoudnessReport            `json:"loudness"`

	// SpeechOnsetSeconds is nil when the enhanced recording has no speech.
	SpeechOnsetSeconds *float64 `json:"speech_onset_seconds"`
}

func speechOnset(ctx context.Context, rec *audiofile.Recording) (*float64, error) {
	d, err := features.New(features.DefaultConfig())
	if err != nil {
		return nil, err
	}
	mask, err := d.Detect(ctx, rec.Mono(), rec.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("unable to detect speech: %w", err)
	}
	onset := mask.FindNextVoice(rec.SampleRate, minSpeechDuration)
	if onset < 0 {
		return nil, nil
	}
	seconds := onset.Seconds()
	return &seconds, nil
}

func readInput(path string) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func decodeInput(p runParams) (*audiofile.Recording, error) {
	data, err := readInput(p.InputPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", p.InputPath, err)
	}

	container := p.InputContainer
	if container == audiofile.ContainerUndefined {
		container = audiofile.ContainerFromPath(p.InputPath)
	}
	switch container {
	case audiofile.ContainerWAV:
		return audiofile.ReadWAV(bytes.NewReader(data))
	case audiofile.ContainerOgg:
		return audiofile.ReadOgg(bytes.NewReader(data))
	default:
		return audiofile.ReadRaw(bytes.NewReader(data), p.RawInput.PCMFormat, p.RawInput.SampleRate, p.RawInput.Channels)
	}
}

func encodeOutput(p runParams, rec *audiofile.Recording) (_err error) {
	container := p.OutputContainer
	if container == audiofile.ContainerUndefined {
		container = audiofile.ContainerFromPath(p.OutputPath)
	}

	switch container {
	case audiofile.ContainerWAV:
		if p.OutputPath == stdio {
			return audio.NewError(audio.KindConfiguration, "encodeOutput", fmt.Errorf("WAV output needs a seekable file, not stdout"))
		}
		f, err := os.Create(p.OutputPath)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", p.OutputPath, err)
		}
		defer func() {
			if err := f.Close(); err != nil && _err == nil {
				_err = err
			}
		}()
		return audiofile.WriteWAV(f, rec, p.Config.Output.PCMFormat)
	case audiofile.ContainerRaw:
		if p.OutputPath == stdio {
			return audiofile.WriteRaw(os.Stdout, rec, p.Config.Output.PCMFormat)
		}
		var buf bytes.Buffer
		if err := audiofile.WriteRaw(&buf, rec, p.Config.Output.PCMFormat); err != nil {
			return err
		}
		return os.WriteFile(p.OutputPath, buf.Bytes(), 0640)
	default:
		return audio.NewError(audio.KindConfiguration, "encodeOutput", fmt.Errorf("cannot write %v", container))
	}
}

func run(ctx context.Context, p runParams) (_err error) {
	logger.Tracef(ctx, "run(%q -> %q)", p.InputPath, p.OutputPath)
	defer func() { logger.Tracef(ctx, "/run: %v", _err) }()

	rec, err := decodeInput(p)
	if err != nil {
		return fmt.Errorf("unable to decode %q: %w", p.InputPath, err)
	}
	logger.Infof(ctx, "input: %d samples, %d Hz, %d channels", len(rec.Samples), rec.SampleRate, rec.Channels)

	e, err := enhancer.New(p.Config.Audio, enhancer.OptionObserver(p.Observer))
	if err != nil {
		return err
	}

	result := report{Profile: p.Config.Profile}
	if p.Config.Classify && len(rec.Samples) > 0 {
		classification, err := noiseclassifier.New().Classify(ctx, rec.Mono(), rec.SampleRate)
		if err != nil {
			return fmt.Errorf("unable to classify the noise: %w", err)
		}
		logger.Infof(ctx, "noise: %s (%.1f%% confidence)", classification.Label, classification.Confidence)
		result.Classification = classification
		result.Profile = classification.Profile
	}
	logger.Infof(ctx, "enhancing with profile %s", result.Profile)

	ns, err := spectral.New(e, noisesuppression.Format{
		PCMFormat:  processingFormat,
		SampleRate: rec.SampleRate,
		Channels:   rec.Channels,
	}, result.Profile)
	if err != nil {
		return err
	}
	defer ns.Close()

	input, err := pcm.Encode(processingFormat, rec.Samples)
	if err != nil {
		return err
	}
	stream, err := noisesuppressionstream.NewNoiseSuppressionStream(ctx, bytes.NewReader(input), ns, 0)
	if err != nil {
		return err
	}
	output, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("unable to enhance: %w", err)
	}
	result.SNRImprovementDB, err = stream.Wait(ctx)
	if err != nil {
		return err
	}

	enhanced, err := pcm.Decode(processingFormat, output)
	if err != nil {
		return err
	}
	enhancedRec := &audiofile.Recording{
		Samples:    enhanced,
		SampleRate: rec.SampleRate,
		Channels:   rec.Channels,
	}
	if err := encodeOutput(p, enhancedRec); err != nil {
		return fmt.Errorf("unable to write %q: %w", p.OutputPath, err)
	}
	logger.Infof(ctx, "estimated SNR improvement: %.1f dB", result.SNRImprovementDB)

	if !p.Report {
		return nil
	}
	result.Loudness = level.Report(rec.Mono(), enhancedRec.Mono())
	result.SpeechOnsetSeconds, err = speechOnset(ctx, enhancedRec)
	if err != nil {
		return err
	}
	w := p.ReportWriter
	if w == nil {
		w = os.Stderr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
