// Package features implements a voice activity detector that fuses five
// per-frame features (energy, zero-crossing rate, spectral centroid,
// spectral flatness and a harmonic-to-noise proxy) into one score.
package features

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
	"golang.org/x/sync/errgroup"
)

const epsilon = 1e-10

type Weights struct {
	Energy   float64 `yaml:"energy"`
	ZCR      float64 `yaml:"zcr"`
	Centroid float64 `yaml:"centroid"`
	Flatness float64 `yaml:"flatness"`
	HNR      float64 `yaml:"hnr"`
}

func (w Weights) Sum() float64 {
	return w.Energy + w.ZCR + w.Centroid + w.Flatness + w.HNR
}

type Config struct {
	Frame               frametransform.Params
	Weights             Weights
	MedianSize          int
	Sigma               float64
	ThresholdPercentile float64
	DilateIterations    int
	ErodeIterations     int

	// DegenerateSpread is the score range below which the score carries
	// no information and the whole input is classified by its level.
	DegenerateSpread float64
	SilenceDB        float64

	// FramesPerWorker is the size of the frame chunks features are
	// extracted from in parallel.
	FramesPerWorker int
	Workers         int
}

func DefaultConfig() Config {
	return Config{
		Frame: frametransform.Params{
			FFTSize:   2048,
			HopLength: 512,
			Window:    audio.WindowHann,
		},
		Weights: Weights{
			Energy:   0.35,
			ZCR:      0.15,
			Centroid: 0.20,
			Flatness: 0.15,
			HNR:      0.15,
		},
		MedianSize:          5,
		Sigma:               2,
		ThresholdPercentile: 60,
		DilateIterations:    3,
		ErodeIterations:     2,
		DegenerateSpread:    0.05,
		SilenceDB:           -60,
		FramesPerWorker:     64,
		Workers:             4,
	}
}

type Detector struct {
	Config Config
}

var _ vad.VAD = (*Detector)(nil)

func New(cfg Config) (*Detector, error) {
	if err := cfg.Frame.Validate(); err != nil {
		return nil, err
	}
	if math.Abs(cfg.Weights.Sum()-1) > 1e-6 {
		return nil, audio.NewError(audio.KindConfiguration, "features.New", fmt.Errorf("weights must sum to 1, got %f", cfg.Weights.Sum()))
	}
	if cfg.ThresholdPercentile < 0 || cfg.ThresholdPercentile > 100 {
		return nil, audio.NewError(audio.KindConfiguration, "features.New", fmt.Errorf("threshold percentile %f is out of [0, 100]", cfg.ThresholdPercentile))
	}
	return &Detector{Config: cfg}, nil
}

type frameFeatures struct {
	energyDB []float64
	zcr      []float64
	centroid []float64
	flatness []float64
	hnrDB    []float64
}

func (d *Detector) extract(
	ctx context.Context,
	frames [][]float64,
	mag [][]float64,
	binHz float64,
) (*frameFeatures, error) {
	n := len(frames)
	result := &frameFeatures{
		energyDB: make([]float64, n),
		zcr:      make([]float64, n),
		centroid: make([]float64, n),
		flatness: make([]float64, n),
		hnrDB:    make([]float64, n),
	}

	chunk := max(d.Config.FramesPerWorker, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Config.Workers, 1))
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for f := start; f < end; f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				result.energyDB[f] = 10 * math.Log10(vad.FrameEnergy(frames[f])+epsilon)
				result.zcr[f] = vad.ZeroCrossingRate(frames[f])
				result.centroid[f] = vad.SpectralCentroid(mag[f], binHz)
				result.flatness[f] = vad.SpectralFlatness(mag[f])
				result.hnrDB[f] = vad.HarmonicRatioDB(mag[f])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Detector) score(feat *frameFeatures) []float64 {
	w := d.Config.Weights
	energy := dsp.MinMaxNormalize(feat.energyDB, epsilon)
	zcr := dsp.MinMaxNormalize(feat.zcr, epsilon)
	centroid := make([]float64, len(energy))
	hnr := make([]float64, len(energy))
	for f := range energy {
		centroid[f] = (feat.centroid[f] - 1000) / 3000
		hnr[f] = (feat.hnrDB[f] + 10) / 30
	}
	dsp.Clip(centroid, 0, 1)
	dsp.Clip(hnr, 0, 1)

	result := make([]float64, len(energy))
	for f := range result {
		result[f] = w.Energy*energy[f] +
			w.ZCR*zcr[f] +
			w.Centroid*centroid[f] +
			w.Flatness*(1-feat.flatness[f]) +
			w.HNR*hnr[f]
	}
	return result
}

func (d *Detector) Detect(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) (_ *vad.Mask, _err error) {
	logger.Tracef(ctx, "features.Detect: %d samples", len(samples))
	defer func() { logger.Tracef(ctx, "/features.Detect: %v", _err) }()

	if sampleRate == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "features.Detect", fmt.Errorf("zero sample rate"))
	}
	mask := &vad.Mask{HopLength: d.Config.Frame.HopLength}
	if len(samples) == 0 {
		return mask, nil
	}

	tr, err := frametransform.New(d.Config.Frame)
	if err != nil {
		return nil, err
	}
	frames := tr.Frames(samples)
	mag := tr.Analyze(samples).Magnitudes()
	binHz := d.Config.Frame.BinFrequency(1, sampleRate)

	feat, err := d.extract(ctx, frames, mag, binHz)
	if err != nil {
		return nil, fmt.Errorf("unable to extract the features: %w", err)
	}

	score := d.score(feat)
	score = dsp.MedianFilter(score, d.Config.MedianSize)
	score = dsp.GaussianFilter(score, d.Config.Sigma)
	if !dsp.IsFinite(score) {
		return nil, audio.NewError(audio.KindNumericalDegeneracy, "features.Detect", fmt.Errorf("non-finite VAD score"))
	}
	mask.Score = score
	mask.Speech = make([]bool, len(score))

	var lo, hi float64 = math.Inf(1), math.Inf(-1)
	for _, v := range score {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < d.Config.DegenerateSpread {
		meanDB := dsp.Mean(feat.energyDB)
		isSpeech := meanDB > d.Config.SilenceDB
		logger.Debugf(ctx, "degenerate VAD score (spread %f); mean frame energy %f dB; speech:%t", hi-lo, meanDB, isSpeech)
		for f := range mask.Speech {
			mask.Speech[f] = isSpeech
		}
		return mask, nil
	}

	threshold := dsp.Percentile(score, d.Config.ThresholdPercentile)
	for f, v := range score {
		mask.Speech[f] = v > threshold
	}
	mask.Speech = dsp.BinaryDilate(mask.Speech, d.Config.DilateIterations)
	mask.Speech = dsp.BinaryErode(mask.Speech, d.Config.ErodeIterations)
	logger.Debugf(ctx, "VAD threshold %f; speech fraction %f", threshold, mask.SpeechFraction())
	return mask, nil
}
