// result.go defines the values handed to the caller by a successful call.

package types

import "time"

// AudioResult is the outcome of a successful audio decode. An input whose
// audio stream produced no samples yields an empty PCM and ByteCount 0.
type AudioResult struct {
	PCM       []byte
	ByteCount int
	Format    PCMFormat
}

// Samples is the number of decoded samples per channel.
func (r *AudioResult) Samples() int {
	if r == nil || r.Format.BytesPerFrame() == 0 {
		return 0
	}
	return r.ByteCount / r.Format.BytesPerFrame()
}

// Duration of the decoded PCM at the output sample rate.
func (r *AudioResult) Duration() time.Duration {
	if r == nil || r.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(r.Samples()) * time.Second / time.Duration(r.Format.SampleRate)
}

// VideoResult is the outcome of a successful video decode: FrameCount images
// of FrameSize bytes each, concatenated in decode order.
type VideoResult struct {
	RGBA       []byte
	Width      int
	Height     int
	FrameCount int
	FrameSize  int
}

// Frame returns the idx-th RGBA image, or nil if out of range.
func (r *VideoResult) Frame(idx int) []byte {
	if r == nil || idx < 0 || idx >= r.FrameCount {
		return nil
	}
	return r.RGBA[idx*r.FrameSize : (idx+1)*r.FrameSize]
}

// StreamInfo describes one elementary stream of a container.
type StreamInfo struct {
	Index     int
	MediaType MediaType
	CodecName string

	// audio
	SampleRate int
	Channels   int

	// video
	Resolution  Resolution
	PixelFormat PixelFormat
}

// ContainerInfo is what probing tells about an input without decoding it.
type ContainerInfo struct {
	FormatName string
	MIMEType   string
	Duration   time.Duration
	Streams    []StreamInfo
}

// FirstStreamOf returns the first stream of the given media type.
func (i *ContainerInfo) FirstStreamOf(mediaType MediaType) (StreamInfo, bool) {
	for _, s := range i.Streams {
		if s.MediaType == mediaType {
			return s, true
		}
	}
	return StreamInfo{}, false
}
