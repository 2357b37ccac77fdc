// status.go defines the Status taxonomy reported at the decode call boundary.

package types

import "fmt"

// Status is the integer outcome of a decode call: zero on success, and a
// negative value naming the stage that failed otherwise.
type Status int

const (
	StatusSuccess              = Status(0)
	StatusBufferAllocFailed    = Status(-1)
	StatusIOContextAllocFailed = Status(-2)
	StatusOpenFailed           = Status(-3)
	StatusStreamInfoFailed     = Status(-4)
	StatusNoStreamFound        = Status(-5)
	StatusUnsupportedCodec     = Status(-6)
	StatusContextAllocFailed   = Status(-7)
	StatusParamCopyFailed      = Status(-8)
	StatusDecoderOpenFailed    = Status(-9)
	StatusConverterInitFailed  = Status(-10)
	StatusDecodeFailed         = Status(-11)
	StatusOutputAllocFailed    = Status(-12)
)

// The resampler (audio) and the scaler (video) occupy the same stage of their
// respective pipelines and share its code.
const (
	StatusResamplerInitFailed = StatusConverterInitFailed
	StatusScalerInitFailed    = StatusConverterInitFailed
)

func (s Status) Code() int {
	return int(s)
}

func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBufferAllocFailed:
		return "buffer allocation failed"
	case StatusIOContextAllocFailed:
		return "IO context allocation failed"
	case StatusOpenFailed:
		return "unable to open the container"
	case StatusStreamInfoFailed:
		return "unable to find stream info"
	case StatusNoStreamFound:
		return "no stream of the requested media type"
	case StatusUnsupportedCodec:
		return "no decoder available for the codec"
	case StatusContextAllocFailed:
		return "decoder context allocation failed"
	case StatusParamCopyFailed:
		return "unable to copy codec parameters"
	case StatusDecoderOpenFailed:
		return "unable to open the decoder"
	case StatusConverterInitFailed:
		return "resampler/scaler initialization failed"
	case StatusDecodeFailed:
		return "decode failed"
	case StatusOutputAllocFailed:
		return "output allocation failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
