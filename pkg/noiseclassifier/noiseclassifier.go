// Package noiseclassifier guesses the kind of background noise of a
// recording from a few spectral features, so that a suitable enhancement
// profile can be chosen automatically.
package noiseclassifier

import (
	"context"
	"fmt"
	"math"

	"github.com/brettbuddin/fourier"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcm"
	"github.com/xaionaro-go/speechenhance/pkg/dsp"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

type Label string

const (
	LabelHouseholdAppliance = Label("Household_Appliance")
	LabelVehicles           = Label("Vechicles")
	LabelVerbalHuman        = Label("Verbal_Human")
	LabelTVnRadio           = Label("TVnRadio")
)

// Labels returns all the labels; on equal scores the earlier one wins.
func Labels() []Label {
	return []Label{
		LabelHouseholdAppliance,
		LabelVehicles,
		LabelVerbalHuman,
		LabelTVnRadio,
	}
}

// SuggestProfile returns the enhancement profile suited for the noise:
// steady machine noise is removed the hardest, voices the gentlest.
func SuggestProfile(label Label) pipeline.Profile {
	switch label {
	case LabelHouseholdAppliance, LabelVehicles:
		return pipeline.ProfileMaximum
	case LabelVerbalHuman:
		return pipeline.ProfileMedium
	default:
		return pipeline.ProfileHigh
	}
}

const (
	// AnalysisSampleRate is the rate the features are computed at.
	AnalysisSampleRate = audio.SampleRate(16000)

	frameSize = 2048
	hopLength = 512
)

type Features struct {
	CentroidMean     float64 `json:"centroid_mean"`
	CentroidVariance float64 `json:"centroid_variance"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`
	RMS              float64 `json:"rms"`
}

type Classification struct {
	Label      Label            `json:"label"`
	Confidence float64          `json:"confidence"`
	Scores     map[Label]int    `json:"scores"`
	Features   Features         `json:"features"`
	Profile    pipeline.Profile `json:"suggested_profile"`
}

type Classifier struct {
	frame  frametransform.Params
	window []float64
}

func New() *Classifier {
	return &Classifier{
		frame: frametransform.Params{
			FFTSize:   frameSize,
			HopLength: hopLength,
			Window:    audio.WindowHann,
		},
		window: window.Hann(frameSize),
	}
}

func (c *Classifier) Classify(
	ctx context.Context,
	samples []float64,
	sampleRate audio.SampleRate,
) (_ret *Classification, _err error) {
	logger.Tracef(ctx, "Classify(%d samples, %d Hz)", len(samples), sampleRate)
	defer func() { logger.Tracef(ctx, "/Classify: %v", _err) }()

	if sampleRate == 0 {
		return nil, audio.NewError(audio.KindConfiguration, "Classify", fmt.Errorf("zero sample rate"))
	}
	if len(samples) == 0 {
		return nil, audio.NewError(audio.KindInvalidInput, "Classify", fmt.Errorf("no samples"))
	}
	if !dsp.IsFinite(samples) {
		return nil, audio.NewError(audio.KindInvalidInput, "Classify", fmt.Errorf("non-finite samples"))
	}

	samples = pcm.Resample(samples, sampleRate, AnalysisSampleRate)
	features, err := c.features(samples)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "noise features: %+v", features)

	scores := Score(features)
	label, confidence := best(scores)
	return &Classification{
		Label:      label,
		Confidence: confidence,
		Scores:     scores,
		Features:   features,
		Profile:    SuggestProfile(label),
	}, nil
}

func best(scores map[Label]int) (Label, float64) {
	var (
		result Label
		score  = -1
	)
	for _, label := range Labels() {
		if scores[label] > score {
			score = scores[label]
			result = label
		}
	}
	return result, math.Min(95, float64(score)/10)
}

func (c *Classifier) features(samples []float64) (Features, error) {
	t, err := frametransform.New(c.frame)
	if err != nil {
		return Features{}, err
	}
	frames := t.Frames(samples)

	centroids := make([]float64, len(frames))
	zcr := make([]float64, len(frames))
	rms := make([]float64, len(frames))
	coeffs := make([]complex128, frameSize)
	for f, frame := range frames {
		var energy float64
		for idx, v := range frame {
			energy += v * v
			if idx > 0 && math.Signbit(v) != math.Signbit(frame[idx-1]) {
				zcr[f]++
			}
			coeffs[idx] = complex(v*c.window[idx], 0)
		}
		zcr[f] /= frameSize
		rms[f] = math.Sqrt(energy / frameSize)

		if err := fourier.Forward(coeffs); err != nil {
			return Features{}, fmt.Errorf("unable to compute the spectrum of frame #%d: %w", f, err)
		}
		var weighted, total float64
		for bin := range c.frame.Bins() {
			mag := math.Hypot(real(coeffs[bin]), imag(coeffs[bin]))
			weighted += c.frame.BinFrequency(bin, AnalysisSampleRate) * mag
			total += mag
		}
		if total > 0 {
			centroids[f] = weighted / total
		}
	}

	centroidMean, centroidStd := dsp.MeanStd(centroids)
	return Features{
		CentroidMean:     centroidMean,
		CentroidVariance: centroidStd * centroidStd,
		ZeroCrossingRate: dsp.Mean(zcr),
		RMS:              dsp.Mean(rms),
	}, nil
}

// Score rates every label for the given features; the higher the more
// likely.
func Score(f Features) map[Label]int {
	scores := map[Label]int{}
	for _, label := range Labels() {
		scores[label] = 0
	}

	switch {
	case f.CentroidMean < 2000 && f.CentroidVariance < 500:
		// low and steady: machines
		if f.ZeroCrossingRate < 0.08 {
			scores[LabelVehicles] += 80
			scores[LabelHouseholdAppliance] += 60
		} else {
			scores[LabelHouseholdAppliance] += 80
			scores[LabelVehicles] += 50
		}
	case f.CentroidMean < 4000:
		scores[LabelVerbalHuman] += 85
		scores[LabelTVnRadio] += 50
	default:
		scores[LabelTVnRadio] += 80
		scores[LabelVerbalHuman] += 60
	}

	if f.RMS > 0.1 {
		scores[LabelHouseholdAppliance] += 20
	} else {
		scores[LabelVerbalHuman] += 20
	}
	return scores
}
