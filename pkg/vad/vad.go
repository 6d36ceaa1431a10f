package vad

import (
	"context"
	"math"
	"time"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

type VAD interface {
	Detect(ctx context.Context, samples []float64, sampleRate audio.SampleRate) (*Mask, error)
}

// Mask is the per-frame speech decision of a VAD. Frame f is centred at
// sample f*HopLength.
type Mask struct {
	Speech    []bool
	Score     []float64
	HopLength int
}

func (m *Mask) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Speech)
}

// SpeechFraction is the share of frames marked as speech, in [0, 1].
func (m *Mask) SpeechFraction() float64 {
	if m.Len() == 0 {
		return 0
	}
	var count int
	for _, isSpeech := range m.Speech {
		if isSpeech {
			count++
		}
	}
	return float64(count) / float64(len(m.Speech))
}

// NonSpeechFrames returns the indexes of the frames not marked as speech.
func (m *Mask) NonSpeechFrames() []int {
	if m == nil {
		return nil
	}
	var result []int
	for f, isSpeech := range m.Speech {
		if !isSpeech {
			result = append(result, f)
		}
	}
	return result
}

// Activity is 1 for a speech frame and 0 otherwise; out-of-range frames
// are treated as speech.
func (m *Mask) Activity(frame int) float64 {
	if frame < 0 || frame >= m.Len() || m.Speech[frame] {
		return 1
	}
	return 0
}

func (m *Mask) frameAt(sample int) int {
	f := int(math.Round(float64(sample) / float64(m.HopLength)))
	return max(0, min(f, len(m.Speech)-1))
}

// Align resamples the mask onto another framing (hopLength, frames) by
// picking, for every target frame, the source frame nearest in time.
func (m *Mask) Align(hopLength, frames int) *Mask {
	if m.Len() == 0 || frames <= 0 {
		return &Mask{HopLength: hopLength}
	}
	if m.HopLength == hopLength && len(m.Speech) == frames {
		return m
	}
	result := &Mask{
		Speech:    make([]bool, frames),
		Score:     make([]float64, frames),
		HopLength: hopLength,
	}
	for f := range result.Speech {
		src := m.frameAt(f * hopLength)
		result.Speech[f] = m.Speech[src]
		if src < len(m.Score) {
			result.Score[f] = m.Score[src]
		}
	}
	return result
}

// SampleEnvelope expands the mask to n samples: 1 where the nearest frame
// is speech, 0 otherwise.
func (m *Mask) SampleEnvelope(n int) []float64 {
	result := make([]float64, n)
	if m.Len() == 0 {
		return result
	}
	for idx := range result {
		if m.Speech[m.frameAt(idx)] {
			result[idx] = 1
		}
	}
	return result
}

// FindNextVoice returns the time of the first frame of the first speech
// run lasting at least minDuration, or -1 if there is none.
func (m *Mask) FindNextVoice(sampleRate audio.SampleRate, minDuration time.Duration) time.Duration {
	if m.Len() == 0 || sampleRate == 0 {
		return -1
	}
	frameDuration := time.Duration(float64(time.Second) * float64(m.HopLength) / float64(sampleRate))
	runStart := -1
	for f := 0; f <= len(m.Speech); f++ {
		if f < len(m.Speech) && m.Speech[f] {
			if runStart < 0 {
				runStart = f
			}
			if time.Duration(f-runStart+1)*frameDuration >= minDuration {
				return time.Duration(runStart) * frameDuration
			}
			continue
		}
		runStart = -1
	}
	return -1
}
