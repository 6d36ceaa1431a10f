// Package config is the configuration file of the command-line tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio audio.Config `yaml:"audio"`

	// Profile is used unless Classify is set.
	Profile  pipeline.Profile `yaml:"profile"`
	Classify bool             `yaml:"classify"`

	Output Output `yaml:"output"`

	MetricsListenAddr string `yaml:"metrics_listen_addr"`
}

type Output struct {
	// PCMFormat is the sample format of raw and WAV output; WAV supports
	// only the integer formats.
	PCMFormat audio.PCMFormat `yaml:"pcm_format"`
}

func Default() Config {
	return Config{
		Audio:   audio.DefaultConfig(),
		Profile: pipeline.ProfileHigh,
		Output: Output{
			PCMFormat: audio.PCMFormatS16LE,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("unable to load %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, audio.NewError(audio.KindConfiguration, "config.Load", fmt.Errorf("unable to decode YAML: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if err := cfg.Audio.Validate(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if cfg.Profile == pipeline.ProfileUndefined {
		mErr = multierror.Append(mErr, fmt.Errorf("profile is not set"))
	}
	if cfg.Output.PCMFormat.Size() == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("output.pcm_format is not set"))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return audio.NewError(audio.KindConfiguration, "config.Validate", err)
	}
	return nil
}
