// prober.go opens the in-memory input as a container and selects the stream
// to decode.

package decoder

import (
	"context"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xaionaro-go/avmemdecode/logger"
	"github.com/xaionaro-go/avmemdecode/memreader"
	"github.com/xaionaro-go/avmemdecode/types"
)

// openContainer wraps input into a memory reader, opens it with demuxer and
// reads the stream info. Everything acquired is registered in closer.
func openContainer(
	ctx context.Context,
	closer *astikit.Closer,
	demuxer Demuxer,
	input []byte,
	cfg Config,
) (_ret Container, _err error) {
	logger.Tracef(ctx, "openContainer: %d bytes", len(input))
	defer func() { logger.Tracef(ctx, "/openContainer: %v", _err) }()

	r, err := memreader.New(input, cfg.MaxInputSize)
	if err != nil {
		return nil, types.WithStatus(err, types.StatusBufferAllocFailed)
	}
	closer.AddWithError(r.Close)

	c, err := demuxer.OpenContainer(ctx, r)
	if err != nil {
		return nil, types.WithStatus(fmt.Errorf("unable to open the input of %s: %w", humanize.Bytes(uint64(len(input))), err), types.StatusOpenFailed)
	}
	closer.AddWithError(func() error {
		return c.Close(ctx)
	})

	if err := c.FindStreamInfo(ctx); err != nil {
		return nil, types.WithStatus(fmt.Errorf("unable to get stream info: %w", err), types.StatusStreamInfoFailed)
	}

	logger.Debugf(ctx, "opened a '%s' container with %d streams", c.FormatName(), len(c.Streams()))
	return c, nil
}

// SelectStream returns the index of the first stream of the given media
// type, by the order the container presents them.
func SelectStream(
	streams []types.StreamInfo,
	mediaType types.MediaType,
) (int, error) {
	for _, s := range streams {
		if s.MediaType == mediaType {
			return s.Index, nil
		}
	}
	return -1, types.Errorf(types.StatusNoStreamFound, "none of %d streams is of type %s", len(streams), mediaType)
}

// Probe opens the input and describes its streams without decoding anything.
func Probe(
	ctx context.Context,
	demuxer Demuxer,
	input []byte,
	opts ...Option,
) (_ret *types.ContainerInfo, _err error) {
	logger.Debugf(ctx, "Probe")
	defer func() { logger.Debugf(ctx, "/Probe: %v", _err) }()

	cfg := Options(opts).Config()
	closer := astikit.NewCloser()
	defer closeAll(ctx, closer)

	c, err := openContainer(ctx, closer, demuxer, input, cfg)
	if err != nil {
		return nil, err
	}

	return &types.ContainerInfo{
		FormatName: c.FormatName(),
		MIMEType:   mimetype.Detect(input).String(),
		Duration:   c.Duration(),
		Streams:    c.Streams(),
	}, nil
}

// closeAll releases everything registered in closer, in reverse order of
// acquisition.
func closeAll(ctx context.Context, closer *astikit.Closer) {
	if err := closer.Close(); err != nil {
		logger.Errorf(ctx, "unable to release resources: %v", err)
	}
}
