package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/audiofile"
	"github.com/xaionaro-go/speechenhance/pkg/config"
	"github.com/xaionaro-go/speechenhance/pkg/metrics"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML configuration file")
	profile := pipeline.ProfileHigh
	pflag.Var(&profile, "profile", "enhancement profile: low, medium, high, maximum or extreme")
	classify := pflag.Bool("classify", false, "choose the profile by the detected noise type")
	report := pflag.Bool("report", false, "print a JSON report to stderr")
	var inputContainer, outputContainer audiofile.Container
	pflag.Var(&inputContainer, "input-container", "wav, ogg or raw; guessed by the file extension by default")
	pflag.Var(&outputContainer, "output-container", "wav or raw; guessed by the file extension by default")
	inputFormat := audio.PCMFormatS16LE
	pflag.Var(&inputFormat, "input-format", "sample format of raw input")
	sampleRate := pflag.Uint32("sample-rate", uint32(audio.DefaultSampleRate), "sample rate of raw input")
	channels := pflag.Uint32("channels", 1, "amount of channels of raw input")
	outputFormat := audio.PCMFormatS16LE
	pflag.Var(&outputFormat, "output-format", "sample format of the output")
	metricsAddr := pflag.String("metrics-listen-addr", "", "an address to serve Prometheus metrics at")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()

	if pflag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input-file> <output-file>\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		assertNoError(err)
	}
	if pflag.CommandLine.Changed("profile") {
		cfg.Profile = profile
	}
	if pflag.CommandLine.Changed("classify") {
		cfg.Classify = *classify
	}
	if pflag.CommandLine.Changed("output-format") {
		cfg.Output.PCMFormat = outputFormat
	}
	if pflag.CommandLine.Changed("metrics-listen-addr") {
		cfg.MetricsListenAddr = *metricsAddr
	}
	assertNoError(cfg.Validate())

	reg := prometheus.NewRegistry()
	observer, err := metrics.NewStageObserver(reg)
	assertNoError(err)
	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(cfg.MetricsListenAddr, mux)) })
	}

	err = run(ctx, runParams{
		Config:          cfg,
		Observer:        observer,
		InputPath:       pflag.Arg(0),
		OutputPath:      pflag.Arg(1),
		InputContainer:  inputContainer,
		OutputContainer: outputContainer,
		RawInput: rawFormat{
			PCMFormat:  inputFormat,
			SampleRate: audio.SampleRate(*sampleRate),
			Channels:   audio.Channel(*channels),
		},
		Report: *report,
	})
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		belt.Flush(ctx)
		os.Exit(1)
	}
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
