// Package noisesuppressionstream turns a NoiseSuppression into an
// io.Reader over a PCM stream. The enhancement needs the whole recording,
// so the input is consumed up to EOF before the first byte is returned.
package noisesuppressionstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/noisesuppression"
)

type NoiseSuppressionStream struct {
	noisesuppression.NoiseSuppression
	format       noisesuppression.Format
	maxInputSize uint
	readCtx      context.Context

	locker           sync.Mutex
	output           *bytes.Reader
	resultError      error
	snrImprovementDB float64
	doneCh           chan struct{}
}

var _ io.Reader = (*NoiseSuppressionStream)(nil)

// NewNoiseSuppressionStream starts consuming input in the background.
// A zero maxInputSize disables the input size limit.
func NewNoiseSuppressionStream(
	ctx context.Context,
	input io.Reader,
	noiseSuppression noisesuppression.NoiseSuppression,
	maxInputSize uint,
) (*NoiseSuppressionStream, error) {
	format, err := noiseSuppression.Format(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the format of the noise suppression: %w", err)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	s := &NoiseSuppressionStream{
		NoiseSuppression: noiseSuppression,
		format:           format,
		maxInputSize:     maxInputSize,
		readCtx:          ctx,
		doneCh:           make(chan struct{}),
	}
	observability.Go(ctx, func() {
		defer close(s.doneCh)
		output, improvement, err := s.process(ctx, input)
		s.locker.Lock()
		defer s.locker.Unlock()
		if err != nil {
			s.resultError = err
			return
		}
		s.output = bytes.NewReader(output)
		s.snrImprovementDB = improvement
	})
	return s, nil
}

func (s *NoiseSuppressionStream) readAll(ctx context.Context, input io.Reader) (_ret []byte, _err error) {
	logger.Tracef(ctx, "readAll")
	defer func() { logger.Tracef(ctx, "/readAll: %d %v", len(_ret), _err) }()

	var buf bytes.Buffer
	readBuf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := input.Read(readBuf)
		if n < 0 {
			return nil, fmt.Errorf("received invalid value of received bytes: %d", n)
		}
		buf.Write(readBuf[:n])
		if s.maxInputSize > 0 && uint(buf.Len()) > s.maxInputSize {
			return nil, audio.NewError(audio.KindResourceExhaustion, "NoiseSuppressionStream",
				fmt.Errorf("the input exceeds %d bytes", s.maxInputSize))
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read the input: %w", err)
		}
	}
}

func (s *NoiseSuppressionStream) process(ctx context.Context, input io.Reader) (_ []byte, _ float64, _err error) {
	logger.Tracef(ctx, "process")
	defer func() { logger.Tracef(ctx, "/process: %v", _err) }()

	data, err := s.readAll(ctx, input)
	if err != nil {
		return nil, 0, err
	}
	if tail := len(data) % int(s.format.FrameSize()); tail != 0 {
		logger.Warnf(ctx, "dropping an incomplete trailing frame of %d bytes", tail)
		data = data[:len(data)-tail]
	}

	output := make([]byte, len(data))
	improvement, err := s.NoiseSuppression.SuppressNoise(ctx, data, output)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to noise-suppress: %w", err)
	}
	logger.Debugf(ctx, "estimated SNR improvement: %.2f dB", improvement)
	return output, improvement, nil
}

// Wait blocks until the whole input is processed and returns the estimated
// SNR improvement.
func (s *NoiseSuppressionStream) Wait(ctx context.Context) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.doneCh:
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.snrImprovementDB, s.resultError
}

func (s *NoiseSuppressionStream) Read(pcm []byte) (_ret int, _err error) {
	logger.Tracef(s.readCtx, "Read, len:%d", len(pcm))
	defer func() { logger.Tracef(s.readCtx, "/Read, len:%d: %d, %v", len(pcm), _ret, _err) }()

	if _, err := s.Wait(s.readCtx); err != nil {
		return 0, err
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.output.Read(pcm)
}
