// stream.go describes libav streams with the types of avmemdecode.

package avconv

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avmemdecode/types"
)

// MediaType converts a libav media type; the numeric values are shared.
func MediaType(t astiav.MediaType) types.MediaType {
	return types.MediaType(t)
}

func StreamInfo(stream *astiav.Stream) types.StreamInfo {
	cp := stream.CodecParameters()
	info := types.StreamInfo{
		Index:     stream.Index(),
		MediaType: MediaType(cp.MediaType()),
		CodecName: cp.CodecID().Name(),
	}
	switch info.MediaType {
	case types.MediaTypeAudio:
		info.SampleRate = cp.SampleRate()
		info.Channels = cp.ChannelLayout().Channels()
	case types.MediaTypeVideo:
		info.Resolution = types.Resolution{
			Width:  uint32(cp.Width()),
			Height: uint32(cp.Height()),
		}
		info.PixelFormat = types.PixelFormat(cp.PixelFormat().Name())
	}
	return info
}

// AudioParams describes the output of an opened audio decoder.
func AudioParams(codecCtx *astiav.CodecContext) types.AudioParams {
	layout := codecCtx.ChannelLayout()
	return types.AudioParams{
		SampleFormat:  codecCtx.SampleFormat().Name(),
		SampleRate:    codecCtx.SampleRate(),
		Channels:      layout.Channels(),
		ChannelLayout: layout.String(),
	}
}
