package libav

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avmemdecode/avconv"
	"github.com/xaionaro-go/avmemdecode/decoder"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

// Decoder is an opened codec context. Frames returned by ReceiveFrame share
// one underlying AVFrame.
type Decoder struct {
	CodecContext *astiav.CodecContext
	Codec        *astiav.Codec

	frame  *astiav.Frame
	closer *astikit.Closer
}

var _ decoder.Decoder = (*Decoder)(nil)

func (d *Decoder) SendPacket(
	ctx context.Context,
	pkt decoder.Packet,
) error {
	var avPkt *astiav.Packet
	if pkt != nil {
		p, ok := pkt.(*Packet)
		if !ok {
			return fmt.Errorf("%T is not a libav packet", pkt)
		}
		avPkt = p.Packet
	}
	if err := d.CodecContext.SendPacket(avPkt); err != nil {
		return fmt.Errorf("unable to send a packet: %w", err)
	}
	return nil
}

func (d *Decoder) ReceiveFrame(ctx context.Context) (decoder.Frame, error) {
	err := d.CodecContext.ReceiveFrame(d.frame)
	switch {
	case err == nil:
		logger.Tracef(ctx, "received a frame: samples:%d, resolution:%dx%d", d.frame.NbSamples(), d.frame.Width(), d.frame.Height())
		return &Frame{Frame: d.frame}, nil
	case errors.Is(err, astiav.ErrEagain):
		return nil, decoder.ErrNeedMoreInput
	case errors.Is(err, astiav.ErrEof):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("unable to receive a frame: %w", err)
	}
}

func (d *Decoder) AudioParams() types.AudioParams {
	return avconv.AudioParams(d.CodecContext)
}

func (d *Decoder) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	if d.closer == nil {
		return nil
	}
	closer := d.closer
	d.closer = nil
	return closer.Close()
}
