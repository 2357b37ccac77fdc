// audio.go implements the audio post-processor and DecodeAudio.

package decoder

import (
	"context"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/avmemdecode/accumulator"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

// AudioPostProcessor resamples every decoded frame into Format and appends
// the result to Output.
type AudioPostProcessor struct {
	Resampler Resampler
	Format    types.PCMFormat
	Output    *accumulator.Buffer

	scratch        []byte
	FramesSkipped  uint64
	SamplesWritten uint64
}

func NewAudioPostProcessor(
	resampler Resampler,
	format types.PCMFormat,
	output *accumulator.Buffer,
) *AudioPostProcessor {
	return &AudioPostProcessor{
		Resampler: resampler,
		Format:    format,
		Output:    output,
	}
}

func (p *AudioPostProcessor) buffer(samples int) []byte {
	size := samples * p.Format.BytesPerFrame()
	if cap(p.scratch) < size {
		p.scratch = make([]byte, size)
	}
	return p.scratch[:size]
}

// ProcessFrame is a FrameHandler. Frames the resampler produces nothing for
// (or fails on) are skipped; errors carrying a types.Status (a resampler that
// could not be configured, an output failure) are reported.
func (p *AudioPostProcessor) ProcessFrame(
	ctx context.Context,
	f Frame,
) error {
	maxOut := p.Resampler.MaxOutSamples(f.NbSamples())
	if maxOut <= 0 {
		p.FramesSkipped++
		return nil
	}
	buf := p.buffer(maxOut)

	converted, err := p.Resampler.Convert(ctx, buf, f)
	if err != nil {
		if types.HasStatus(err) {
			return fmt.Errorf("unable to resample a frame of %d samples: %w", f.NbSamples(), err)
		}
		logger.Debugf(ctx, "unable to resample a frame of %d samples, skipping it: %v", f.NbSamples(), err)
		p.FramesSkipped++
		return nil
	}
	return p.write(ctx, buf, converted, maxOut)
}

// Flush appends the samples still buffered inside the resampler.
func (p *AudioPostProcessor) Flush(ctx context.Context) error {
	maxOut := p.Resampler.MaxOutSamples(0)
	if maxOut <= 0 {
		return nil
	}
	buf := p.buffer(maxOut)
	converted, err := p.Resampler.Flush(ctx, buf)
	if err != nil {
		logger.Debugf(ctx, "unable to flush the resampler: %v", err)
		return nil
	}
	if converted <= 0 {
		return nil
	}
	return p.write(ctx, buf, converted, maxOut)
}

func (p *AudioPostProcessor) write(
	ctx context.Context,
	buf []byte,
	converted int,
	maxOut int,
) error {
	if converted <= 0 {
		p.FramesSkipped++
		return nil
	}
	if converted > maxOut {
		return types.Errorf(types.StatusDecodeFailed, "the resampler wrote %d samples into a buffer of %d samples", converted, maxOut)
	}
	if err := p.Output.Append(buf[:converted*p.Format.BytesPerFrame()]); err != nil {
		return err
	}
	p.SamplesWritten += uint64(converted)
	logger.Tracef(ctx, "resampled %d samples; %d bytes accumulated", converted, p.Output.Len())
	return nil
}

// DecodeAudio decodes the first audio stream of input into interleaved
// signed 16-bit little-endian stereo PCM (48 kHz unless OptionSampleRate
// says otherwise).
//
// On success the returned PCM is owned by the caller; an input whose audio
// stream produces no samples is a success with an empty PCM. On failure the
// result is nil and the error carries a types.Status.
func DecodeAudio(
	ctx context.Context,
	backend Backend,
	input []byte,
	opts ...Option,
) (_ret *types.AudioResult, _err error) {
	ctx = belt.WithField(ctx, "media_type", types.MediaTypeAudio.String())
	logger.Debugf(ctx, "DecodeAudio: %s", humanize.Bytes(uint64(len(input))))
	defer func() { logger.Debugf(ctx, "/DecodeAudio: %v", _err) }()

	cfg := Options(opts).Config()
	format := cfg.PCMFormat()

	closer := astikit.NewCloser()
	defer closeAll(ctx, closer)

	c, streamIndex, dec, err := openStreamDecoder(ctx, closer, backend, input, types.MediaTypeAudio, cfg)
	if err != nil {
		return nil, err
	}

	params := dec.AudioParams()
	resampler, err := backend.NewResampler(ctx, params, format)
	if err != nil {
		return nil, types.WithStatus(fmt.Errorf("unable to initialize a resampler %s -> %s: %w", params, format, err), types.StatusResamplerInitFailed)
	}
	closer.AddWithError(func() error {
		return resampler.Close(ctx)
	})

	output := accumulator.Buffer{MaxSize: cfg.MaxOutputSize}
	pp := NewAudioPostProcessor(resampler, format, &output)

	session := NewSession(c, dec, streamIndex)
	session.SkipFlush = cfg.SkipDecoderFlush
	if err := session.Run(ctx, pp.ProcessFrame); err != nil {
		return nil, err
	}
	if !cfg.SkipDecoderFlush {
		if err := pp.Flush(ctx); err != nil {
			return nil, err
		}
	}

	pcm := output.Take()
	logger.Debugf(ctx, "decoded %d frames into %s of PCM (%d frames skipped)", session.Stats.FramesDecoded, humanize.Bytes(uint64(len(pcm))), pp.FramesSkipped)
	return &types.AudioResult{
		PCM:       pcm,
		ByteCount: len(pcm),
		Format:    format,
	}, nil
}

// openStreamDecoder opens the container, selects the first stream of
// mediaType and opens a decoder for it.
func openStreamDecoder(
	ctx context.Context,
	closer *astikit.Closer,
	backend Backend,
	input []byte,
	mediaType types.MediaType,
	cfg Config,
) (Container, int, Decoder, error) {
	c, err := openContainer(ctx, closer, backend, input, cfg)
	if err != nil {
		return nil, -1, nil, err
	}

	streamIndex, err := SelectStream(c.Streams(), mediaType)
	if err != nil {
		return nil, -1, nil, err
	}
	ctx = belt.WithField(ctx, "stream_index", streamIndex)

	dec, err := c.OpenDecoder(ctx, streamIndex)
	if err != nil {
		return nil, -1, nil, types.WithStatus(fmt.Errorf("unable to open a decoder for stream #%d: %w", streamIndex, err), types.StatusDecoderOpenFailed)
	}
	closer.AddWithError(func() error {
		return dec.Close(ctx)
	})

	return c, streamIndex, dec, nil
}
