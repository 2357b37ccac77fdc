// format.go defines the fixed output formats of the post-processors.

package types

import "fmt"

// PCMFormat describes interleaved signed-integer PCM.
type PCMFormat struct {
	SampleRate     int
	Channels       int
	BytesPerSample int
}

// PCMS16Stereo48k is the audio output format: signed 16-bit little-endian,
// 48000 Hz, two interleaved channels.
var PCMS16Stereo48k = PCMFormat{
	SampleRate:     48000,
	Channels:       2,
	BytesPerSample: 2,
}

// BytesPerFrame is the size of one sample across all channels.
func (f PCMFormat) BytesPerFrame() int {
	return f.Channels * f.BytesPerSample
}

func (f PCMFormat) String() string {
	return fmt.Sprintf("s%dle/%dHz/%dch", f.BytesPerSample*8, f.SampleRate, f.Channels)
}

// AudioParams are the source parameters a decoder reports for its stream.
// Format names follow libavutil naming ("fltp", "s16", ...).
type AudioParams struct {
	SampleFormat  string
	SampleRate    int
	Channels      int
	ChannelLayout string
}

func (p AudioParams) String() string {
	return fmt.Sprintf("%s/%dHz/%dch(%s)", p.SampleFormat, p.SampleRate, p.Channels, p.ChannelLayout)
}

// PixelFormat is a pixel format name in libavutil naming ("yuv420p", "rgba", ...).
type PixelFormat string

func (pf PixelFormat) String() string {
	return string(pf)
}

const (
	PixelFormatRGBA = PixelFormat("rgba")

	// BytesPerPixelRGBA is the size of one packed RGBA pixel.
	BytesPerPixelRGBA = 4
)

type Resolution struct {
	Width  uint32
	Height uint32
}

func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// RGBASize is the size of one tightly packed RGBA image of this resolution.
func (r Resolution) RGBASize() int {
	return int(r.Width) * int(r.Height) * BytesPerPixelRGBA
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
