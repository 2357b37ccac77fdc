// Package scaler converts decoded video frames into tightly packed RGBA with
// libswscale.
package scaler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/types"
)

// Software converts frames into RGBA of a fixed resolution. The source
// resolution equals the destination one: no scaling happens unless a frame
// of another resolution arrives, which is still converted into Resolution.
type Software struct {
	*astiav.SoftwareScaleContext
	Resolution types.Resolution

	dstFrame *astiav.Frame
}

func NewSoftware(
	ctx context.Context,
	res types.Resolution,
	srcPixFmt astiav.PixelFormat,
) (_ret *Software, _err error) {
	logger.Tracef(ctx, "NewSoftware: %s %s", res, srcPixFmt)
	defer func() { logger.Tracef(ctx, "/NewSoftware: %s %s: %v", res, srcPixFmt, _err) }()

	if res.IsZero() {
		return nil, fmt.Errorf("invalid resolution: %s", res)
	}

	swSCtx, err := astiav.CreateSoftwareScaleContext(
		int(res.Width),
		int(res.Height),
		srcPixFmt,
		int(res.Width),
		int(res.Height),
		astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create a software scale context: %w", err)
	}

	dstFrame := astiav.AllocFrame()
	if dstFrame == nil {
		swSCtx.Free()
		return nil, fmt.Errorf("cannot alloc the destination frame")
	}

	return &Software{
		SoftwareScaleContext: swSCtx,
		Resolution:           res,
		dstFrame:             dstFrame,
	}, nil
}

func (s *Software) String() string {
	if s.SoftwareScaleContext == nil {
		return "SoftwareScaler(closed)"
	}
	return fmt.Sprintf(
		"SoftwareScaler(%dx%d:%s -> %dx%d:%s)",
		s.SoftwareScaleContext.SourceWidth(),
		s.SoftwareScaleContext.SourceHeight(),
		s.SoftwareScaleContext.SourcePixelFormat(),
		s.SoftwareScaleContext.DestinationWidth(),
		s.SoftwareScaleContext.DestinationHeight(),
		s.SoftwareScaleContext.DestinationPixelFormat(),
	)
}

func (s *Software) Close(ctx context.Context) error {
	logger.Tracef(ctx, "Close")
	defer logger.Tracef(ctx, "/Close")
	if s.dstFrame != nil {
		s.dstFrame.Free()
		s.dstFrame = nil
	}
	if s.SoftwareScaleContext != nil {
		s.SoftwareScaleContext.Free()
		s.SoftwareScaleContext = nil
	}
	return nil
}

// ScaleFrame converts src and copies the image into dst, which must hold at
// least Resolution.RGBASize() bytes. It returns the amount of rows written.
func (s *Software) ScaleFrame(
	ctx context.Context,
	src *astiav.Frame,
	dst []byte,
) (_ret int, _err error) {
	logger.Tracef(ctx, "ScaleFrame")
	defer func() { logger.Tracef(ctx, "/ScaleFrame: %d %v", _ret, _err) }()
	if s.SoftwareScaleContext == nil {
		return 0, fmt.Errorf("scaler is closed")
	}
	if size := s.Resolution.RGBASize(); len(dst) < size {
		return 0, fmt.Errorf("the buffer is too small: %d < %d", len(dst), size)
	}

	s.dstFrame.Unref()
	s.dstFrame.SetWidth(int(s.Resolution.Width))
	s.dstFrame.SetHeight(int(s.Resolution.Height))
	s.dstFrame.SetPixelFormat(astiav.PixelFormatRgba)
	if err := s.dstFrame.AllocBuffer(1); err != nil {
		return 0, fmt.Errorf("unable to allocate the destination image: %w", err)
	}

	if err := s.SoftwareScaleContext.ScaleFrame(src, s.dstFrame); err != nil {
		return 0, fmt.Errorf("unable to scale a frame: %w", err)
	}

	if _, err := s.dstFrame.ImageCopyToBuffer(dst, 1); err != nil {
		return 0, fmt.Errorf("unable to copy the image: %w", err)
	}
	return s.dstFrame.Height(), nil
}
