// Package avmemdecode decodes media payloads held in memory: audio into
// interleaved signed 16-bit little-endian stereo PCM at 48 kHz, video into a
// sequence of RGBA images. FFmpeg does the demuxing, decoding, resampling and
// pixel format conversion.
package avmemdecode

import (
	"context"

	"github.com/xaionaro-go/avmemdecode/decoder"
	"github.com/xaionaro-go/avmemdecode/libav"
	"github.com/xaionaro-go/avmemdecode/types"
)

type Option = decoder.Option
type Options = decoder.Options
type OptionMaxInputSize = decoder.OptionMaxInputSize
type OptionMaxOutputSize = decoder.OptionMaxOutputSize
type OptionSkipDecoderFlush = decoder.OptionSkipDecoderFlush
type OptionSampleRate = decoder.OptionSampleRate

type AudioResult = types.AudioResult
type VideoResult = types.VideoResult
type ContainerInfo = types.ContainerInfo
type Status = types.Status

// Backend is the collaborator set used by the functions of this package.
var Backend decoder.Backend = &libav.Backend{}

// DecodeAudio decodes the first audio stream of input. input is only read
// during the call and may be reused right after it returns.
//
// On success the PCM belongs to the caller (it is empty if the stream
// produced no samples). On failure the result is nil; see StatusCode.
func DecodeAudio(
	ctx context.Context,
	input []byte,
	opts ...Option,
) (*AudioResult, error) {
	return decoder.DecodeAudio(ctx, Backend, input, opts...)
}

// DecodeVideo decodes the first video stream of input into RGBA images of
// the first frame's resolution. On failure the result is nil; see
// StatusCode.
func DecodeVideo(
	ctx context.Context,
	input []byte,
	opts ...Option,
) (*VideoResult, error) {
	return decoder.DecodeVideo(ctx, Backend, input, opts...)
}

// Probe describes the container and the streams of input.
func Probe(
	ctx context.Context,
	input []byte,
	opts ...Option,
) (*ContainerInfo, error) {
	return decoder.Probe(ctx, Backend, input, opts...)
}

// StatusCode is the integer status of a call that returned err: 0 on
// success, a negative code naming the failed stage otherwise.
func StatusCode(err error) int {
	return types.StatusOf(err).Code()
}
