// video.go implements the video post-processor and DecodeVideo.

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

// VideoPostProcessor converts every decoded frame into RGBA and appends it
// to Output.
//
// The resolution is taken from the first frame and is used for every later
// frame and for the whole lifetime of the converter: a frame of another
// resolution is still converted into the first frame's resolution.
type VideoPostProcessor struct {
	Backend Backend
	Output  *accumulator.Frames

	closer        *astikit.Closer
	converter     PixelConverter
	scratch       []byte
	FramesSkipped uint64
	FramesResized uint64
}

func NewVideoPostProcessor(
	backend Backend,
	output *accumulator.Frames,
	closer *astikit.Closer,
) *VideoPostProcessor {
	return &VideoPostProcessor{
		Backend: backend,
		Output:  output,
		closer:  closer,
	}
}

func (p *VideoPostProcessor) init(
	ctx context.Context,
	first Frame,
) (_err error) {
	res := types.Resolution{
		Width:  uint32(first.Width()),
		Height: uint32(first.Height()),
	}
	logger.Debugf(ctx, "init: %s", res)
	defer func() { logger.Debugf(ctx, "/init: %s: %v", res, _err) }()

	converter, err := p.Backend.NewPixelConverter(ctx, res, first)
	if err != nil {
		return types.WithStatus(fmt.Errorf("unable to initialize a scaler for %s: %w", res, err), types.StatusScalerInitFailed)
	}
	p.closer.AddWithError(func() error {
		return converter.Close(ctx)
	})
	p.converter = converter
	p.Output.SetResolution(res)
	p.scratch = make([]byte, p.Output.FrameSize())
	return nil
}

// ProcessFrame is a FrameHandler.
func (p *VideoPostProcessor) ProcessFrame(
	ctx context.Context,
	f Frame,
) error {
	if p.converter == nil {
		if f.Width() <= 0 || f.Height() <= 0 {
			logger.Warnf(ctx, "a frame without dimensions (%dx%d), skipping it", f.Width(), f.Height())
			p.FramesSkipped++
			return nil
		}
		if err := p.init(ctx, f); err != nil {
			return err
		}
	}

	res := p.Output.Resolution()
	if uint32(f.Width()) != res.Width || uint32(f.Height()) != res.Height {
		if p.FramesResized == 0 {
			logger.Warnf(ctx, "the frame resolution changed from %s to %dx%d; converting into %s anyway", res, f.Width(), f.Height(), res)
		}
		p.FramesResized++
	}

	clear(p.scratch)
	rows, err := p.converter.Convert(ctx, p.scratch, f)
	if err != nil {
		logger.Debugf(ctx, "unable to convert a frame, skipping it: %v", err)
		p.FramesSkipped++
		return nil
	}
	if rows <= 0 {
		p.FramesSkipped++
		return nil
	}
	logger.Tracef(ctx, "converted %d rows", rows)
	return p.Output.AppendFrame(p.scratch)
}

// DecodeVideo decodes the first video stream of input into a sequence of
// tightly packed RGBA images of the first frame's resolution.
//
// On success the returned RGBA is owned by the caller and its length is
// exactly FrameCount*Width*Height*4; Width, Height and FrameCount are zero if
// no frame was decoded. On failure the result is nil and the error carries a
// types.Status.
func DecodeVideo(
	ctx context.Context,
	backend Backend,
	input []byte,
	opts ...Option,
) (_ret *types.VideoResult, _err error) {
	ctx = belt.WithField(ctx, "media_type", types.MediaTypeVideo.String())
	logger.Debugf(ctx, "DecodeVideo: %s", humanize.Bytes(uint64(len(input))))
	defer func() { logger.Debugf(ctx, "/DecodeVideo: %v", _err) }()

	cfg := Options(opts).Config()

	closer := astikit.NewCloser()
	defer closeAll(ctx, closer)

	c, streamIndex, dec, err := openStreamDecoder(ctx, closer, backend, input, types.MediaTypeVideo, cfg)
	if err != nil {
		return nil, err
	}

	output := accumulator.Frames{Buffer: accumulator.Buffer{MaxSize: cfg.MaxOutputSize}}
	pp := NewVideoPostProcessor(backend, &output, closer)

	session := NewSession(c, dec, streamIndex)
	session.SkipFlush = cfg.SkipDecoderFlush
	if err := session.Run(ctx, pp.ProcessFrame); err != nil {
		return nil, err
	}

	res := output.Resolution()
	result := &types.VideoResult{
		Width:      int(res.Width),
		Height:     int(res.Height),
		FrameCount: output.FrameCount(),
		FrameSize:  output.FrameSize(),
	}
	result.RGBA = output.Take()
	logger.Debugf(ctx, "decoded %d frames, %d converted into %s of RGBA (%d skipped)", session.Stats.FramesDecoded, result.FrameCount, humanize.Bytes(uint64(len(result.RGBA))), pp.FramesSkipped)
	return result, nil
}
