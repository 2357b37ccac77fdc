package libav

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avmemdecode/decoder"
)

type Packet struct {
	*astiav.Packet
}

var _ decoder.Packet = (*Packet)(nil)

type Frame struct {
	*astiav.Frame
}

var _ decoder.Frame = (*Frame)(nil)
