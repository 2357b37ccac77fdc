package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avmemdecode"
	"github.com/xaionaro-go/avmemdecode/libav"
	"github.com/xaionaro-go/observability"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input-file>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	var cfg config
	pflag.BoolVar(&cfg.Audio, "audio", true, "decode the first audio stream")
	pflag.BoolVar(&cfg.Video, "video", true, "decode the first video stream")
	pflag.StringVar(&cfg.PCMOut, "pcm-out", "", "write the decoded audio as raw s16le/48kHz/stereo PCM into this file")
	pflag.StringVar(&cfg.WAVOut, "wav-out", "", "write the decoded audio as a WAV file")
	pflag.StringVar(&cfg.RGBAOut, "rgba-out", "", "write the decoded video as concatenated raw RGBA images into this file")
	pflag.StringVar(&cfg.PNGOut, "png-out", "", "write the first decoded video frame as a PNG image")
	pflag.IntVar(&cfg.MaxInputSize, "max-input-size", 0, "refuse inputs larger than this (bytes, 0: no limit)")
	pflag.IntVar(&cfg.MaxOutputSize, "max-output-size", 0, "fail if an output grows larger than this (bytes, 0: no limit)")
	pflag.IntVar(&cfg.SampleRate, "sample-rate", 48000, "the sample rate of the decoded audio")
	pflag.BoolVar(&cfg.SkipDecoderFlush, "skip-decoder-flush", false, "do not drain the delayed frames after the last packet")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	cfg.InputPath = pflag.Arg(0)

	l := logrus.Default().WithLevel(loggerLevel)
	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	libav.SetLogger(ctx, loggerLevel)

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	observability.Go(ctx, func(ctx context.Context) {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
		}
		l.Warnf("interrupted, stopping after the current packet (interrupt again to exit immediately)")
		cancelFn()
		<-sigCh
		belt.Flush(ctx)
		os.Exit(-avmemdecode.StatusCode(context.Canceled))
	})

	summary, err := run(ctx, afero.NewOsFs(), cfg)
	fmt.Print(summary)
	if err != nil {
		l.Error(err)
		belt.Flush(ctx)
		os.Exit(-avmemdecode.StatusCode(err))
	}
}
