package libav

import (
	"context"

	"github.com/xaionaro-go/avmemdecode/decoder"
	"github.com/xaionaro-go/avmemdecode/resampler"
	"github.com/xaionaro-go/avmemdecode/scaler"
)

type Resampler struct {
	*resampler.Resampler
}

var _ decoder.Resampler = (*Resampler)(nil)

func (r *Resampler) Convert(
	ctx context.Context,
	dst []byte,
	f decoder.Frame,
) (int, error) {
	avFrame, err := unwrapFrame(f)
	if err != nil {
		return 0, err
	}
	return r.Resampler.ConvertFrame(ctx, avFrame, dst)
}

func (r *Resampler) Flush(
	ctx context.Context,
	dst []byte,
) (int, error) {
	return r.Resampler.ConvertFrame(ctx, nil, dst)
}

type PixelConverter struct {
	*scaler.Software
}

var _ decoder.PixelConverter = (*PixelConverter)(nil)

func (c *PixelConverter) Convert(
	ctx context.Context,
	dst []byte,
	f decoder.Frame,
) (int, error) {
	avFrame, err := unwrapFrame(f)
	if err != nil {
		return 0, err
	}
	return c.Software.ScaleFrame(ctx, avFrame, dst)
}
