package main

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/xaionaro-go/avmemdecode"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
	"github.com/youpy/go-wav"
	"golang.org/x/sync/errgroup"
)

type config struct {
	InputPath string

	Audio bool
	Video bool

	PCMOut  string
	WAVOut  string
	RGBAOut string
	PNGOut  string

	MaxInputSize     int
	MaxOutputSize    int
	SampleRate       int
	SkipDecoderFlush bool
}

func (cfg config) options() avmemdecode.Options {
	opts := avmemdecode.Options{
		avmemdecode.OptionMaxInputSize(cfg.MaxInputSize),
		avmemdecode.OptionMaxOutputSize(cfg.MaxOutputSize),
		avmemdecode.OptionSkipDecoderFlush(cfg.SkipDecoderFlush),
	}
	if cfg.SampleRate > 0 {
		opts = append(opts, avmemdecode.OptionSampleRate(cfg.SampleRate))
	}
	return opts
}

// run reads the whole input into memory, probes it and decodes the
// requested streams concurrently. The returned summary is meant for stdout.
func run(
	ctx context.Context,
	fs afero.Fs,
	cfg config,
) (_summary string, _err error) {
	logger.Debugf(ctx, "run: %#+v", cfg)
	defer func() { logger.Debugf(ctx, "/run: %v", _err) }()

	input, err := afero.ReadFile(fs, cfg.InputPath)
	if err != nil {
		return "", fmt.Errorf("unable to read '%s': %w", cfg.InputPath, err)
	}

	var summary strings.Builder
	opts := cfg.options()

	info, err := avmemdecode.Probe(ctx, input, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to probe '%s': %w", cfg.InputPath, err)
	}
	fmt.Fprintf(&summary, "input: %s, format: %s (%s), duration: %v\n", humanize.Bytes(uint64(len(input))), info.FormatName, info.MIMEType, info.Duration)
	for _, s := range info.Streams {
		fmt.Fprintf(&summary, "  stream #%d: %s %s\n", s.Index, s.MediaType, s.CodecName)
	}

	var (
		audio *avmemdecode.AudioResult
		video *avmemdecode.VideoResult
	)
	g, gctx := errgroup.WithContext(ctx)
	if _, ok := info.FirstStreamOf(types.MediaTypeAudio); cfg.Audio && !ok {
		fmt.Fprintf(&summary, "audio: no stream\n")
	} else if cfg.Audio {
		g.Go(func() error {
			var err error
			audio, err = avmemdecode.DecodeAudio(gctx, input, opts...)
			if err != nil {
				return fmt.Errorf("unable to decode audio (status %d): %w", avmemdecode.StatusCode(err), err)
			}
			return nil
		})
	}
	if _, ok := info.FirstStreamOf(types.MediaTypeVideo); cfg.Video && !ok {
		fmt.Fprintf(&summary, "video: no stream\n")
	} else if cfg.Video {
		g.Go(func() error {
			var err error
			video, err = avmemdecode.DecodeVideo(gctx, input, opts...)
			if err != nil {
				return fmt.Errorf("unable to decode video (status %d): %w", avmemdecode.StatusCode(err), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary.String(), err
	}

	if audio != nil {
		fmt.Fprintf(&summary, "audio: %s of %s PCM (%v)\n", humanize.Bytes(uint64(audio.ByteCount)), audio.Format, audio.Duration())
		if err := writeAudio(fs, cfg, audio); err != nil {
			return summary.String(), err
		}
	}
	if video != nil {
		fmt.Fprintf(&summary, "video: %d frames of %dx%d, %s of RGBA\n", video.FrameCount, video.Width, video.Height, humanize.Bytes(uint64(len(video.RGBA))))
		if err := writeVideo(fs, cfg, video); err != nil {
			return summary.String(), err
		}
	}
	return summary.String(), nil
}

func writeAudio(
	fs afero.Fs,
	cfg config,
	audio *avmemdecode.AudioResult,
) error {
	if cfg.PCMOut != "" {
		if err := afero.WriteFile(fs, cfg.PCMOut, audio.PCM, 0644); err != nil {
			return fmt.Errorf("unable to write '%s': %w", cfg.PCMOut, err)
		}
	}
	if cfg.WAVOut != "" {
		if err := writeWAV(fs, cfg.WAVOut, audio); err != nil {
			return fmt.Errorf("unable to write '%s': %w", cfg.WAVOut, err)
		}
	}
	return nil
}

func writeWAV(
	fs afero.Fs,
	path string,
	audio *avmemdecode.AudioResult,
) (_err error) {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = err
		}
	}()

	format := audio.Format
	samples := make([]wav.Sample, audio.Samples())
	frameSize := format.BytesPerFrame()
	for i := range samples {
		frame := audio.PCM[i*frameSize : (i+1)*frameSize]
		for ch := 0; ch < format.Channels && ch < len(samples[i].Values); ch++ {
			samples[i].Values[ch] = int(int16(uint16(frame[ch*2]) | uint16(frame[ch*2+1])<<8))
		}
	}

	w := wav.NewWriter(f, uint32(len(samples)), uint16(format.Channels), uint32(format.SampleRate), uint16(format.BytesPerSample*8))
	return w.WriteSamples(samples)
}

func writeVideo(
	fs afero.Fs,
	cfg config,
	video *avmemdecode.VideoResult,
) error {
	if cfg.RGBAOut != "" {
		if err := afero.WriteFile(fs, cfg.RGBAOut, video.RGBA, 0644); err != nil {
			return fmt.Errorf("unable to write '%s': %w", cfg.RGBAOut, err)
		}
	}
	if cfg.PNGOut != "" && video.FrameCount > 0 {
		if err := writePNG(fs, cfg.PNGOut, video); err != nil {
			return fmt.Errorf("unable to write '%s': %w", cfg.PNGOut, err)
		}
	}
	return nil
}

func writePNG(
	fs afero.Fs,
	path string,
	video *avmemdecode.VideoResult,
) (_err error) {
	img := &image.NRGBA{
		Pix:    video.Frame(0),
		Stride: video.Width * 4,
		Rect:   image.Rect(0, 0, video.Width, video.Height),
	}

	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = err
		}
	}()
	return imgio.PNGEncoder()(f, img)
}
