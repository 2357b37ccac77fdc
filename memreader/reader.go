// Package memreader exposes a caller-supplied byte slice as the input of a
// demuxer, without any filesystem in between.
package memreader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/avmemdecode/types"
)

var ErrClosed = errors.New("the reader is closed")

// Reader owns a copy of the payload. The caller's slice is never retained,
// so it may be reused as soon as New returns.
//
// The copy is not padded: the demuxer reads it through its own IO buffer,
// and every packet it hands to a decoder is allocated with
// AV_INPUT_BUFFER_PADDING_SIZE zero bytes by libavformat.
type Reader struct {
	data   []byte
	size   int64
	offset int64
	closed bool
}

var (
	_ io.ReadSeeker = (*Reader)(nil)
	_ io.Closer     = (*Reader)(nil)
)

// New copies payload. maxSize limits the payload size (0 means no limit);
// exceeding it is reported as StatusBufferAllocFailed, the same way an
// allocation failure of the copy would be.
func New(payload []byte, maxSize int) (*Reader, error) {
	if maxSize > 0 && len(payload) > maxSize {
		return nil, types.Errorf(types.StatusBufferAllocFailed,
			"the payload of %d bytes exceeds the limit of %d bytes", len(payload), maxSize)
	}
	return &Reader{
		data: bytes.Clone(payload),
		size: int64(len(payload)),
	}, nil
}

// Size is the length of the payload; it stays valid after Close.
func (r *Reader) Size() int64 {
	return r.size
}

func (r *Reader) Read(b []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.offset >= r.size {
		return 0, io.EOF
	}
	n := copy(b, r.data[r.offset:])
	r.offset += int64(n)
	return n, nil
}

// Seek repositions within the resident copy. Seeking past the end is
// allowed and makes the next Read return io.EOF.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position: %d", abs)
	}
	r.offset = abs
	return abs, nil
}

// Close releases the copy. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.data = nil
	return nil
}
