// collaborator.go defines the capabilities the decode pipeline consumes from
// a media library: demuxing, decoding, resampling and pixel-format conversion.

package decoder

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/xaionaro-go/avmemdecode/types"
)

// ErrNeedMoreInput is returned by Decoder.ReceiveFrame when the decoder has
// no frame to output until it gets more packets.
var ErrNeedMoreInput = errors.New("the decoder needs more input")

// Packet is one container-level unit of compressed data. It is valid until
// Unref is called.
type Packet interface {
	StreamIndex() int
	Unref()
}

// Frame is one decoded unit. It is valid until Unref is called or until the
// next Decoder.ReceiveFrame, whichever happens first.
type Frame interface {
	// NbSamples is the amount of audio samples per channel (audio only).
	NbSamples() int
	// Width and Height are the image dimensions (video only).
	Width() int
	Height() int
	Unref()
}

// Backend is the full set of collaborators needed by DecodeAudio,
// DecodeVideo and Probe.
type Backend interface {
	Demuxer
	NewResampler(ctx context.Context, in types.AudioParams, out types.PCMFormat) (Resampler, error)

	// NewPixelConverter configures a conversion of frames in the pixel format
	// of the frame "first" into tightly packed RGBA of resolution res.
	NewPixelConverter(ctx context.Context, res types.Resolution, first Frame) (PixelConverter, error)
}

// Demuxer opens containers. The format is detected by content inspection
// only; r is positioned at the start of the payload.
//
// Errors should be tagged (see types.NewError) with
// StatusIOContextAllocFailed or StatusOpenFailed; untagged errors are treated
// as StatusOpenFailed.
type Demuxer interface {
	OpenContainer(ctx context.Context, r io.ReadSeeker) (Container, error)
}

type Container interface {
	FindStreamInfo(ctx context.Context) error
	Streams() []types.StreamInfo
	FormatName() string
	Duration() time.Duration

	// ReadPacket returns the next packet of any stream, or io.EOF when the
	// container is exhausted.
	ReadPacket(ctx context.Context) (Packet, error)

	// OpenDecoder returns a decoder bound to the parameters of the stream.
	// Errors should be tagged with StatusUnsupportedCodec,
	// StatusContextAllocFailed, StatusParamCopyFailed or
	// StatusDecoderOpenFailed; untagged errors are treated as the latter.
	OpenDecoder(ctx context.Context, streamIndex int) (Decoder, error)

	Close(ctx context.Context) error
}

type Decoder interface {
	// SendPacket submits a packet; a nil Packet signals the end of the
	// stream so delayed frames get flushed.
	SendPacket(ctx context.Context, pkt Packet) error

	// ReceiveFrame returns ErrNeedMoreInput or io.EOF when no frame is
	// available; any other error is fatal.
	ReceiveFrame(ctx context.Context) (Frame, error)

	AudioParams() types.AudioParams
	Close(ctx context.Context) error
}

// Resampler converts audio frames into the PCM format it was configured
// for. dst is interleaved; the returned value is the amount of samples per
// channel written to dst.
type Resampler interface {
	// MaxOutSamples is an upper bound of the samples produced by converting
	// inSamples samples (including what is buffered inside the resampler).
	MaxOutSamples(inSamples int) int
	Convert(ctx context.Context, dst []byte, f Frame) (int, error)

	// Flush outputs the samples buffered inside the resampler.
	Flush(ctx context.Context, dst []byte) (int, error)
	Close(ctx context.Context) error
}

// PixelConverter converts video frames into RGBA. It returns the amount of
// output rows written to dst.
type PixelConverter interface {
	Convert(ctx context.Context, dst []byte, f Frame) (int, error)
	Close(ctx context.Context) error
}
