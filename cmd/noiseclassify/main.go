package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/audiofile"
	"github.com/xaionaro-go/speechenhance/pkg/noiseclassifier"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	var container audiofile.Container
	pflag.Var(&container, "container", "wav, ogg or raw; guessed by the file extension by default")
	inputFormat := audio.PCMFormatS16LE
	pflag.Var(&inputFormat, "input-format", "sample format of raw input")
	sampleRate := pflag.Uint32("sample-rate", uint32(audio.DefaultSampleRate), "sample rate of raw input")
	channels := pflag.Uint32("channels", 1, "amount of channels of raw input")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input-file>\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	path := pflag.Arg(0)
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	assertNoError(err)

	if container == audiofile.ContainerUndefined {
		container = audiofile.ContainerFromPath(path)
	}
	var rec *audiofile.Recording
	switch container {
	case audiofile.ContainerWAV:
		rec, err = audiofile.ReadWAV(bytes.NewReader(data))
	case audiofile.ContainerOgg:
		rec, err = audiofile.ReadOgg(bytes.NewReader(data))
	default:
		rec, err = audiofile.ReadRaw(bytes.NewReader(data), inputFormat, audio.SampleRate(*sampleRate), audio.Channel(*channels))
	}
	assertNoError(err)

	classification, err := noiseclassifier.New().Classify(ctx, rec.Mono(), rec.SampleRate)
	assertNoError(err)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	assertNoError(enc.Encode(classification))
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
