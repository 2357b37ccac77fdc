package accumulator

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/avmemdecode/types"
)

var ErrFrameSizeMismatch = errors.New("the chunk size differs from the frame size")

// Frames accumulates fixed-size images. The resolution is fixed by the
// first call to SetResolution and never changes afterwards.
type Frames struct {
	Buffer

	resolution types.Resolution
	frameSize  int
	frameCount int
}

// SetResolution fixes the resolution. It returns false (and keeps the
// previous value) if the resolution is already set.
func (f *Frames) SetResolution(res types.Resolution) bool {
	if f.frameSize != 0 {
		return false
	}
	f.resolution = res
	f.frameSize = res.RGBASize()
	return true
}

func (f *Frames) Resolution() types.Resolution {
	return f.resolution
}

// FrameSize is the size of one image, 0 until the resolution is set.
func (f *Frames) FrameSize() int {
	return f.frameSize
}

func (f *Frames) FrameCount() int {
	return f.frameCount
}

// AppendFrame appends one full image.
func (f *Frames) AppendFrame(image []byte) error {
	if f.frameSize == 0 {
		return fmt.Errorf("the resolution is not set")
	}
	if len(image) != f.frameSize {
		return fmt.Errorf("%w: %d != %d", ErrFrameSizeMismatch, len(image), f.frameSize)
	}
	if err := f.Buffer.Append(image); err != nil {
		return err
	}
	f.frameCount++
	return nil
}
