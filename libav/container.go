package libav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/avmemdecode/avconv"
	"github.com/xaionaro-go/avmemdecode/decoder"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

// Container is an opened input. Packets returned by ReadPacket share one
// underlying AVPacket, so only one of them may be in use at a time.
type Container struct {
	FormatContext *astiav.FormatContext

	packet *astiav.Packet
	closer *astikit.Closer
}

var _ decoder.Container = (*Container)(nil)

func (c *Container) FindStreamInfo(ctx context.Context) error {
	if err := c.FormatContext.FindStreamInfo(nil); err != nil {
		return types.Errorf(types.StatusStreamInfoFailed, "unable to get stream info: %w", err)
	}
	for _, stream := range c.FormatContext.Streams() {
		logger.Debugf(ctx, "input stream #%d: %s", stream.Index(), spew.Sdump(avconv.StreamInfo(stream)))
	}
	return nil
}

func (c *Container) Streams() []types.StreamInfo {
	streams := c.FormatContext.Streams()
	result := make([]types.StreamInfo, 0, len(streams))
	for _, stream := range streams {
		result = append(result, avconv.StreamInfo(stream))
	}
	return result
}

func (c *Container) FormatName() string {
	inputFormat := c.FormatContext.InputFormat()
	if inputFormat == nil {
		return ""
	}
	return inputFormat.Name()
}

func (c *Container) Duration() time.Duration {
	return avconv.ContainerDuration(c.FormatContext)
}

func (c *Container) ReadPacket(ctx context.Context) (decoder.Packet, error) {
	err := c.FormatContext.ReadFrame(c.packet)
	switch {
	case err == nil:
		logger.Tracef(ctx, "received a packet (stream:%d, pts:%d, dts:%d), dataLen:%d", c.packet.StreamIndex(), c.packet.Pts(), c.packet.Dts(), c.packet.Size())
		return &Packet{Packet: c.packet}, nil
	case errors.Is(err, astiav.ErrEof):
		return nil, io.EOF
	case errors.Is(err, astiav.ErrEio):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("unable to read a frame: %w", err)
	}
}

func (c *Container) OpenDecoder(
	ctx context.Context,
	streamIndex int,
) (_ret decoder.Decoder, _err error) {
	logger.Tracef(ctx, "OpenDecoder: %d", streamIndex)
	defer func() { logger.Tracef(ctx, "/OpenDecoder: %d: %v", streamIndex, _err) }()

	stream := avconv.FindStreamByIndex(c.FormatContext, streamIndex)
	if stream == nil {
		return nil, types.Errorf(types.StatusNoStreamFound, "there is no stream #%d", streamIndex)
	}
	codecParameters := stream.CodecParameters()

	codec := astiav.FindDecoder(codecParameters.CodecID())
	if codec == nil {
		return nil, types.Errorf(types.StatusUnsupportedCodec, "unable to find a decoder for codec ID %v", codecParameters.CodecID())
	}

	closer := astikit.NewCloser()
	defer func() {
		if _err != nil {
			_ = closer.Close()
		}
	}()

	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		return nil, types.Errorf(types.StatusContextAllocFailed, "unable to allocate codec context")
	}
	closer.Add(codecCtx.Free)

	if err := codecParameters.ToCodecContext(codecCtx); err != nil {
		return nil, types.Errorf(types.StatusParamCopyFailed, "unable to copy codec parameters: %w", err)
	}

	if err := codecCtx.Open(codec, nil); err != nil {
		return nil, types.Errorf(types.StatusDecoderOpenFailed, "unable to open codec context: %w", err)
	}

	f := astiav.AllocFrame()
	if f == nil {
		return nil, types.Errorf(types.StatusContextAllocFailed, "unable to allocate a frame")
	}
	closer.Add(f.Free)

	logger.Debugf(ctx, "opened decoder '%s' for stream #%d", codec.Name(), streamIndex)
	return &Decoder{
		CodecContext: codecCtx,
		Codec:        codec,
		frame:        f,
		closer:       closer,
	}, nil
}

func (c *Container) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	if c.closer == nil {
		return nil
	}
	closer := c.closer
	c.closer = nil
	return closer.Close()
}
