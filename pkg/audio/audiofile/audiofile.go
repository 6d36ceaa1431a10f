// Package audiofile reads and writes whole recordings in the container
// formats the command-line tools accept.
package audiofile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/planar"
)

// Recording is a decoded recording; channels are interleaved.
type Recording struct {
	Samples    []float64
	SampleRate audio.SampleRate
	Channels   audio.Channel
}

// Planes returns the samples of every channel separately.
func (r *Recording) Planes() ([][]float64, error) {
	return planar.Planarize(r.Channels, r.Samples)
}

// Mono returns the average of the channels.
func (r *Recording) Mono() []float64 {
	if r.Channels <= 1 {
		return r.Samples
	}
	channels := int(r.Channels)
	result := make([]float64, len(r.Samples)/channels)
	for idx := range result {
		var sum float64
		for _, v := range r.Samples[idx*channels : (idx+1)*channels] {
			sum += v
		}
		result[idx] = sum / float64(channels)
	}
	return result
}

type Container uint

const (
	ContainerUndefined = Container(iota)
	ContainerWAV
	ContainerOgg
	ContainerRaw
	endOfContainer
)

func (c Container) String() string {
	switch c {
	case ContainerUndefined:
		return "undefined"
	case ContainerWAV:
		return "wav"
	case ContainerOgg:
		return "ogg"
	case ContainerRaw:
		return "raw"
	default:
		return fmt.Sprintf("unknown_container_%d", uint(c))
	}
}

func ParseContainer(s string) (Container, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c := ContainerWAV; c < endOfContainer; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return ContainerUndefined, audio.NewError(audio.KindConfiguration, "ParseContainer", fmt.Errorf("unknown container %q", s))
}

// Set implements pflag.Value.
func (c *Container) Set(s string) error {
	v, err := ParseContainer(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (*Container) Type() string {
	return "container"
}

// ContainerFromPath guesses the container by the file extension; anything
// unknown (including stdin/stdout as "-") is raw PCM.
func ContainerFromPath(path string) Container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return ContainerWAV
	case ".ogg", ".oga":
		return ContainerOgg
	default:
		return ContainerRaw
	}
}
