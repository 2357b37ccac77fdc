// Package libav implements the collaborators of package decoder on top of
// FFmpeg (through go-astiav): demuxing, decoding, resampling and pixel
// format conversion.
package libav

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/avmemdecode/decoder"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/resampler"
	"github.com/xaionaro-go/avmemdecode/scaler"
	"github.com/xaionaro-go/avmemdecode/types"
)

const (
	// DefaultIOBufferSize is the size of the buffer of the AVIOContext.
	DefaultIOBufferSize = 32 * 1024

	// see libavformat/avio.h
	avSeekSize  = 0x10000
	avSeekForce = 0x20000
)

// Backend is the FFmpeg-backed decoder.Backend. The zero value is ready to
// use.
type Backend struct {
	IOBufferSize int
}

var _ decoder.Backend = (*Backend)(nil)

func (b *Backend) ioBufferSize() int {
	if b == nil || b.IOBufferSize <= 0 {
		return DefaultIOBufferSize
	}
	return b.IOBufferSize
}

// OpenContainer opens r with a custom AVIOContext, so FFmpeg reads the
// payload from memory and probes the format by content only.
func (b *Backend) OpenContainer(
	ctx context.Context,
	r io.ReadSeeker,
) (_ret decoder.Container, _err error) {
	logger.Tracef(ctx, "OpenContainer")
	defer func() { logger.Tracef(ctx, "/OpenContainer: %v", _err) }()

	size, err := sizeOf(r)
	if err != nil {
		return nil, types.Errorf(types.StatusIOContextAllocFailed, "unable to get the size of the input: %w", err)
	}

	closer := astikit.NewCloser()
	defer func() {
		if _err != nil {
			_ = closer.Close()
		}
	}()

	ioCtx, err := astiav.AllocIOContext(
		b.ioBufferSize(),
		false,
		func(buf []byte) (int, error) {
			n, err := r.Read(buf)
			if n == 0 && errors.Is(err, io.EOF) {
				return 0, astiav.ErrEof
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return n, err
			}
			return n, nil
		},
		func(offset int64, whence int) (int64, error) {
			if whence&avSeekSize != 0 {
				return size, nil
			}
			return r.Seek(offset, whence&^avSeekForce)
		},
		nil,
	)
	if err != nil {
		return nil, types.Errorf(types.StatusIOContextAllocFailed, "unable to allocate an IO context: %w", err)
	}
	closer.Add(ioCtx.Free)

	fmtCtx := astiav.AllocFormatContext()
	if fmtCtx == nil {
		return nil, types.Errorf(types.StatusIOContextAllocFailed, "unable to allocate a format context")
	}
	closer.Add(fmtCtx.Free)
	fmtCtx.SetPb(ioCtx)

	if err := fmtCtx.OpenInput("", nil, nil); err != nil {
		return nil, types.Errorf(types.StatusOpenFailed, "unable to open the input: %w", err)
	}
	closer.Add(fmtCtx.CloseInput)

	pkt := allocPacket()
	if pkt == nil {
		return nil, types.Errorf(types.StatusBufferAllocFailed, "unable to allocate a packet")
	}
	closer.Add(pkt.Free)

	return &Container{
		FormatContext: fmtCtx,
		packet:        pkt,
		closer:        closer,
	}, nil
}

// allocPacket is replaced in tests to simulate an allocation failure.
var allocPacket = astiav.AllocPacket

func sizeOf(s io.Seeker) (int64, error) {
	if sized, ok := s.(interface{ Size() int64 }); ok {
		return sized.Size(), nil
	}
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

func (b *Backend) NewResampler(
	ctx context.Context,
	in types.AudioParams,
	out types.PCMFormat,
) (decoder.Resampler, error) {
	r, err := resampler.New(ctx, in, out)
	if err != nil {
		return nil, err
	}
	return &Resampler{Resampler: r}, nil
}

func (b *Backend) NewPixelConverter(
	ctx context.Context,
	res types.Resolution,
	first decoder.Frame,
) (decoder.PixelConverter, error) {
	f, err := unwrapFrame(first)
	if err != nil {
		return nil, err
	}
	s, err := scaler.NewSoftware(ctx, res, f.PixelFormat())
	if err != nil {
		return nil, err
	}
	return &PixelConverter{Software: s}, nil
}

func unwrapFrame(f decoder.Frame) (*astiav.Frame, error) {
	switch f := f.(type) {
	case *Frame:
		return f.Frame, nil
	default:
		return nil, fmt.Errorf("%T is not a libav frame", f)
	}
}
