package pipeline

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/frametransform"
	"github.com/xaionaro-go/speechenhance/pkg/gain"
	"github.com/xaionaro-go/speechenhance/pkg/noiseestimate"
	"github.com/xaionaro-go/speechenhance/pkg/snr"
	"github.com/xaionaro-go/speechenhance/pkg/vad"
	"github.com/xaionaro-go/speechenhance/pkg/vad/implementations/energy"
	"github.com/xaionaro-go/speechenhance/pkg/vad/implementations/features"
	"github.com/xaionaro-go/speechenhance/pkg/vad/implementations/rules"
)

// Params is the immutable definition of a profile.
type Params struct {
	Profile Profile
	Stages  []Stage

	// MinGainDB and MaxBoostDB are passed to level.EnsureLevel after the
	// last stage.
	MinGainDB  float64
	MaxBoostDB float64

	// SNRRange clamps the SNR improvement reported for this profile.
	SNRRange snr.Range
}

type validator interface {
	Validate() error
}

func (p Params) Validate() error {
	var mErr *multierror.Error
	if len(p.Stages) == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("profile %s has no stages", p.Profile))
	}
	for idx, stage := range p.Stages {
		v, ok := stage.(validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("profile %s, stage #%d: %w", p.Profile, idx, err))
		}
	}
	if p.MaxBoostDB < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("profile %s: negative max boost %g dB", p.Profile, p.MaxBoostDB))
	}
	if err := p.SNRRange.Validate(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("profile %s: %w", p.Profile, err))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return audio.NewError(audio.KindConfiguration, "Params.Validate", err)
	}
	return nil
}

// Table maps every profile to its parameters.
type Table map[Profile]Params

func (t Table) Params(p Profile) (Params, error) {
	params, ok := t[p]
	if !ok {
		return Params{}, audio.NewError(audio.KindConfiguration, "Table.Params", fmt.Errorf("profile %s is not defined", p))
	}
	return params, nil
}

func (t Table) Validate() error {
	var mErr *multierror.Error
	for _, p := range Profiles() {
		params, ok := t[p]
		if !ok {
			mErr = multierror.Append(mErr, fmt.Errorf("profile %s is not defined", p))
			continue
		}
		if err := params.Validate(); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return audio.NewError(audio.KindConfiguration, "Table.Validate", err)
	}
	return nil
}

const (
	defaultMinGainDB  = 0
	defaultMaxBoostDB = 6
)

var (
	gentleSNRRange     = snr.Range{Min: 2, Max: 10}
	aggressiveSNRRange = snr.Range{Min: 5, Max: 30}
)

func quietestNoise(seconds float64) NoiseEstimatorFactory {
	return func(sampleRate audio.SampleRate, frame frametransform.Params) noiseestimate.Estimator {
		return noiseestimate.NewQuietest(seconds, sampleRate, frame.HopLength)
	}
}

func quietFramesNoise(audio.SampleRate, frametransform.Params) noiseestimate.Estimator {
	return noiseestimate.NewQuietFrames()
}

func combinedNoise(audio.SampleRate, frametransform.Params) noiseestimate.Estimator {
	return noiseestimate.NewCombined()
}

func leadingNoise(frames int) NoiseEstimatorFactory {
	return func(audio.SampleRate, frametransform.Params) noiseestimate.Estimator {
		return noiseestimate.NewLeading(frames)
	}
}

func minPercentileNoise(audio.SampleRate, frametransform.Params) noiseestimate.Estimator {
	return noiseestimate.NewMinPercentile()
}

type detectors struct {
	features vad.VAD
	rules    vad.VAD
	energy   vad.VAD
}

func newDetectors(cfg audio.Config) (*detectors, error) {
	var mErr *multierror.Error

	featuresCfg := features.DefaultConfig()
	featuresCfg.Frame.Window = cfg.Window
	featuresCfg.Workers = cfg.Workers
	featuresVAD, err := features.New(featuresCfg)
	if err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize the feature VAD: %w", err))
	}

	rulesCfg := rules.DefaultConfig()
	rulesCfg.Frame.Window = cfg.Window
	rulesVAD, err := rules.New(rulesCfg)
	if err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize the rule-based VAD: %w", err))
	}

	energyVAD, err := energy.New(energy.DefaultConfig())
	if err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize the energy VAD: %w", err))
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &detectors{
		features: featuresVAD,
		rules:    rulesVAD,
		energy:   energyVAD,
	}, nil
}

// NewTable builds the parameters of every profile. The framing of the
// high, maximum and extreme profiles is the one of cfg; the gentler
// profiles and the VAD-driven passes use their own.
func NewTable(cfg audio.Config) (Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	det, err := newDetectors(cfg)
	if err != nil {
		return nil, audio.NewError(audio.KindConfiguration, "NewTable", err)
	}

	short := frametransform.Params{FFTSize: 512, HopLength: 160, Window: cfg.Window}
	primary := frametransform.Params{FFTSize: cfg.FFTSize, HopLength: cfg.HopLength, Window: cfg.Window}
	long := frametransform.Params{FFTSize: 2048, HopLength: 512, Window: cfg.Window}

	wiener := func() Stage {
		return &SpectralStage{
			Label:  "wiener",
			Frame:  short,
			Noise:  quietestNoise(0.5),
			Policy: &gain.Wiener{MinGain: 0.1, SubtractNoise: true},
		}
	}
	biased := func(label string, alpha, beta float64) Stage {
		return &SpectralStage{
			Label:  label,
			Frame:  primary,
			Noise:  quietFramesNoise,
			VAD:    det.rules,
			Policy: &gain.BiasedSubtraction{Alpha: alpha, Beta: beta, SilenceBoost: 2},
		}
	}
	gate := func(label string, thresholdDB float64) Stage {
		return &SpectralStage{
			Label:  label,
			Frame:  primary,
			Policy: &gain.SpectralGate{ThresholdDB: thresholdDB, Sigma: 2},
		}
	}
	residual := func(label string) Stage {
		return &SpectralStage{
			Label:  label,
			Frame:  primary,
			Noise:  quietFramesNoise,
			Policy: &gain.Wiener{NoiseScale: 0.5, Exponent: 1.5},
		}
	}

	low := []Stage{wiener()}

	medium := []Stage{
		wiener(),
		&SpectralStage{
			Label:  "spectral_subtraction",
			Frame:  short,
			Noise:  quietestNoise(0.5),
			Policy: &gain.SpectralSubtraction{Alpha: 2, Beta: 0.1, Floor: gain.FloorRelativeToNoise},
			Passes: 2,
		},
		&SpectralStage{
			Label:  "multiband",
			Frame:  short,
			Noise:  leadingNoise(5),
			Policy: &gain.MultiBand{Bands: 4, AlphaStart: 2.5, AlphaStep: 0.3, Beta: 0.1},
		},
		NewPerceptualWeighting(),
	}

	high := []Stage{
		biased("subtraction_1", 3.5, 0.02),
		gate("gate_1", -35),
		biased("subtraction_2", 4.5, 0.01),
		&SpectralStage{
			Label:  "harmonic_emphasis",
			Frame:  primary,
			Policy: &gain.HarmonicEmphasis{MedianSize: 11, Mix: 0.5, Cap: 1.2},
		},
	}

	maximum := append(append([]Stage{}, high...),
		biased("subtraction_3", 5.0, 0.005),
		residual("residual_1"),
	)

	extreme := append(append([]Stage{}, maximum...),
		gate("gate_2", -45),
		residual("residual_2"),
		&SpectralStage{
			Label: "vad_adaptive_subtraction",
			Frame: long,
			Noise: combinedNoise,
			VAD:   det.features,
			Progression: func(pass int) gain.Policy {
				return &gain.VADAdaptiveSubtraction{
					Speech:  gain.Regime{Alpha: 5 + float64(pass), Beta: 0.005 / float64(pass+1)},
					Silence: gain.Regime{Alpha: 8 + float64(pass), Beta: 0.0001},
				}
			},
			Passes: 3,
		},
		&SpectralStage{
			Label:  "deep_subtraction",
			Frame:  long,
			Noise:  minPercentileNoise,
			Policy: &gain.SpectralSubtraction{Alpha: 12, Beta: 0.00005, Floor: gain.FloorRelativeToMagnitude},
		},
		&SpectralStage{
			Label:  "speech_band_emphasis",
			Frame:  long,
			Policy: gain.NewSpeechBandEmphasis(),
		},
		&GapSilencing{
			VAD:              det.energy,
			Floor:            0.3,
			SmoothingSeconds: 0.02,
		},
	)

	table := Table{}
	for profile, stages := range map[Profile][]Stage{
		ProfileLow:     low,
		ProfileMedium:  medium,
		ProfileHigh:    high,
		ProfileMaximum: maximum,
		ProfileExtreme: extreme,
	} {
		snrRange := aggressiveSNRRange
		if profile <= ProfileMedium {
			snrRange = gentleSNRRange
		}
		table[profile] = Params{
			Profile:    profile,
			Stages:     stages,
			MinGainDB:  defaultMinGainDB,
			MaxBoostDB: defaultMaxBoostDB,
			SNRRange:   snrRange,
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
