// Package resampler converts decoded audio frames into interleaved signed
// 16-bit PCM with libswresample.
package resampler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

type Resampler struct {
	SoftwareResampleContext *astiav.SoftwareResampleContext
	FormatInput             types.AudioParams
	FormatOutput            types.PCMFormat

	channelLayout astiav.ChannelLayout

	// libswresample configures itself from the first converted frame;
	// swr_get_delay must not be called before that.
	configured bool
}

func New(
	ctx context.Context,
	in types.AudioParams,
	out types.PCMFormat,
) (_ret *Resampler, _err error) {
	logger.Tracef(ctx, "New: %s -> %s", in, out)
	defer func() { logger.Tracef(ctx, "/New: %s -> %s: %v", in, out, _err) }()

	if in.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid input sample rate: %d", in.SampleRate)
	}
	if in.Channels <= 0 {
		return nil, fmt.Errorf("invalid amount of input channels: %d", in.Channels)
	}
	if out.BytesPerSample != 2 {
		return nil, fmt.Errorf("only 16-bit output is supported, requested %d bits", out.BytesPerSample*8)
	}
	if out.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid output sample rate: %d", out.SampleRate)
	}

	var layout astiav.ChannelLayout
	switch out.Channels {
	case 1:
		layout = astiav.ChannelLayoutMono
	case 2:
		layout = astiav.ChannelLayoutStereo
	default:
		return nil, fmt.Errorf("unsupported amount of output channels: %d", out.Channels)
	}

	swrCtx := astiav.AllocSoftwareResampleContext()
	if swrCtx == nil {
		return nil, fmt.Errorf("cannot alloc SoftwareResampleContext")
	}

	return &Resampler{
		SoftwareResampleContext: swrCtx,
		FormatInput:             in,
		FormatOutput:            out,
		channelLayout:           layout,
	}, nil
}

func (r *Resampler) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	if r.SoftwareResampleContext == nil {
		return nil
	}
	r.SoftwareResampleContext.Free()
	r.SoftwareResampleContext = nil
	return nil
}

func (r *Resampler) String() string {
	return fmt.Sprintf("Resampler<%s -> %s>", r.FormatInput, r.FormatOutput)
}

// MaxOutSamples is the upper bound of the samples (per channel) produced by
// converting inSamples more samples, including the ones delayed inside the
// resampler (see swr_get_out_samples).
func (r *Resampler) MaxOutSamples(inSamples int) int {
	if r.SoftwareResampleContext == nil {
		return 0
	}
	inRate := int64(r.FormatInput.SampleRate)
	total := int64(inSamples)
	if r.configured {
		total += r.SoftwareResampleContext.Delay(inRate)
	}
	if total <= 0 {
		return 0
	}
	return int((total*int64(r.FormatOutput.SampleRate) + inRate - 1) / inRate)
}

// ConvertFrame resamples in and writes the interleaved result into dst; a
// nil "in" drains the samples delayed inside the resampler. It returns the
// amount of samples per channel written; the capacity is given by len(dst).
func (r *Resampler) ConvertFrame(
	ctx context.Context,
	in *astiav.Frame,
	dst []byte,
) (_ret int, _err error) {
	logger.Tracef(ctx, "ConvertFrame: %d bytes", len(dst))
	defer func() { logger.Tracef(ctx, "/ConvertFrame: %d bytes: %d %v", len(dst), _ret, _err) }()

	if r.SoftwareResampleContext == nil {
		return 0, fmt.Errorf("the resampler is closed")
	}

	if in == nil && !r.configured {
		return 0, nil
	}

	capacity := len(dst) / r.FormatOutput.BytesPerFrame()
	if capacity <= 0 {
		return 0, nil
	}

	out := astiav.AllocFrame()
	if out == nil {
		return 0, fmt.Errorf("cannot alloc a frame for the resampled samples")
	}
	defer out.Free()
	out.SetChannelLayout(r.channelLayout)
	out.SetSampleFormat(astiav.SampleFormatS16)
	out.SetSampleRate(r.FormatOutput.SampleRate)
	out.SetNbSamples(capacity)
	if err := out.AllocBuffer(0); err != nil {
		return 0, fmt.Errorf("cannot alloc buffer for resampled frame: %w", err)
	}

	if err := r.SoftwareResampleContext.ConvertFrame(in, out); err != nil {
		if !r.configured {
			// the first conversion runs swr_config_frame and swr_init
			return 0, types.NewError(types.StatusResamplerInitFailed, fmt.Errorf("unable to configure the resampler from the first frame: %w", err))
		}
		return 0, fmt.Errorf("cannot convert frame: %w", err)
	}
	r.configured = true

	nbSamples := out.NbSamples()
	if nbSamples <= 0 {
		return 0, nil
	}
	if nbSamples > capacity {
		return 0, fmt.Errorf("resampled %d samples into a buffer of %d samples", nbSamples, capacity)
	}

	size := nbSamples * r.FormatOutput.BytesPerFrame()
	if _, err := out.SamplesCopyToBuffer(dst[:size], 1); err != nil {
		return 0, fmt.Errorf("unable to copy samples to buffer: %w", err)
	}
	return nbSamples, nil
}
