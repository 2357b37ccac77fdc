// session.go implements the packet pump: packets of the selected stream go
// into the decoder, decoded frames go to a FrameHandler.

package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

// FrameHandler consumes one decoded frame. The frame is unreferenced right
// after the handler returns. A returned error aborts the session.
type FrameHandler func(ctx context.Context, f Frame) error

type SessionStats struct {
	PacketsRead     uint64
	PacketsSkipped  uint64
	PacketsRejected uint64
	FramesDecoded   uint64
}

// Session drives one decoder bound to one stream of a container.
type Session struct {
	Container   Container
	Decoder     Decoder
	StreamIndex int
	SkipFlush   bool

	Stats SessionStats
}

func NewSession(
	c Container,
	dec Decoder,
	streamIndex int,
) *Session {
	return &Session{
		Container:   c,
		Decoder:     dec,
		StreamIndex: streamIndex,
	}
}

// Run pumps the whole container. It succeeds only when the container is
// exhausted. A rejected packet is skipped; a decoder error other than
// "need more input" / "end of stream" is fatal (StatusDecodeFailed).
func (s *Session) Run(
	ctx context.Context,
	onFrame FrameHandler,
) (_err error) {
	logger.Debugf(ctx, "Run: stream #%d", s.StreamIndex)
	defer func() { logger.Debugf(ctx, "/Run: stream #%d: %+v: %v", s.StreamIndex, s.Stats, _err) }()

	for {
		if err := ctx.Err(); err != nil {
			return types.NewError(types.StatusDecodeFailed, err)
		}

		pkt, err := s.Container.ReadPacket(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return s.flush(ctx, onFrame)
		default:
			// a truncated or damaged tail ends the input the same way
			logger.Warnf(ctx, "unable to read a packet, considering the input exhausted: %v", err)
			return s.flush(ctx, onFrame)
		}
		s.Stats.PacketsRead++

		if err := s.processPacket(ctx, pkt, onFrame); err != nil {
			return err
		}
	}
}

func (s *Session) processPacket(
	ctx context.Context,
	pkt Packet,
	onFrame FrameHandler,
) error {
	defer pkt.Unref()

	if pkt.StreamIndex() != s.StreamIndex {
		s.Stats.PacketsSkipped++
		return nil
	}
	logger.Tracef(ctx, "packet of stream #%d", pkt.StreamIndex())

	if err := s.Decoder.SendPacket(ctx, pkt); err != nil {
		logger.Debugf(ctx, "the decoder rejected a packet, skipping it: %v", err)
		s.Stats.PacketsRejected++
		return nil
	}

	return s.drain(ctx, onFrame)
}

func (s *Session) flush(
	ctx context.Context,
	onFrame FrameHandler,
) error {
	if s.SkipFlush {
		return nil
	}
	if err := s.Decoder.SendPacket(ctx, nil); err != nil {
		logger.Debugf(ctx, "unable to signal the end of stream to the decoder: %v", err)
		return nil
	}
	return s.drain(ctx, onFrame)
}

func (s *Session) drain(
	ctx context.Context,
	onFrame FrameHandler,
) error {
	for {
		f, err := s.Decoder.ReceiveFrame(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrNeedMoreInput), errors.Is(err, io.EOF):
			return nil
		default:
			return types.NewError(types.StatusDecodeFailed, fmt.Errorf("unable to receive a frame: %w", err))
		}
		s.Stats.FramesDecoded++

		err = onFrame(ctx, f)
		f.Unref()
		if err != nil {
			return types.WithStatus(err, types.StatusDecodeFailed)
		}
	}
}
