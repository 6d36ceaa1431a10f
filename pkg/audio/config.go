package audio

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
)

// Config is the process-wide processing configuration. It is passed by
// value and never modified after construction.
type Config struct {
	// SampleRate is the rate the caller is expected to deliver; stages
	// tuned in Hz use the per-call sample rate instead.
	SampleRate SampleRate `yaml:"sample_rate"`

	// FFTSize and HopLength are the default framing for spectral stages
	// that do not define their own.
	FFTSize   int    `yaml:"fft_size"`
	HopLength int    `yaml:"hop_length"`
	Window    Window `yaml:"window"`

	// MaxSamples bounds the input length; longer inputs are rejected
	// with ErrResourceExhaustion since frame matrices are kept in memory.
	MaxSamples int `yaml:"max_samples"`

	// Workers limits the parallelism inside a single stage.
	Workers int `yaml:"workers"`
}

const (
	DefaultFFTSize   = 1024
	DefaultHopLength = 256

	// DefaultMaxSamples is 30 minutes of audio at DefaultSampleRate.
	DefaultMaxSamples = 30 * 60 * int(DefaultSampleRate)
)

func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		FFTSize:    DefaultFFTSize,
		HopLength:  DefaultHopLength,
		Window:     WindowHann,
		MaxSamples: DefaultMaxSamples,
		Workers:    runtime.NumCPU(),
	}
}

// Validate returns all the problems found in the config at once.
func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if cfg.SampleRate == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("sample rate must be positive"))
	}
	if cfg.FFTSize <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("FFT size must be positive: got %d", cfg.FFTSize))
	}
	if cfg.HopLength <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("hop length must be positive: got %d", cfg.HopLength))
	}
	if cfg.FFTSize > 0 && cfg.HopLength > cfg.FFTSize {
		mErr = multierror.Append(mErr, fmt.Errorf("hop length %d exceeds FFT size %d", cfg.HopLength, cfg.FFTSize))
	}
	if cfg.Window == WindowUndefined || cfg.Window >= endOfWindow {
		mErr = multierror.Append(mErr, fmt.Errorf("window is not defined: %v", cfg.Window))
	}
	if cfg.MaxSamples <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("max samples must be positive: got %d", cfg.MaxSamples))
	}
	if cfg.Workers <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("workers must be positive: got %d", cfg.Workers))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return NewError(KindConfiguration, "Config.Validate", err)
	}
	return nil
}
