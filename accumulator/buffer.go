// Package accumulator collects the output of the post-processors into a
// single contiguous buffer.
package accumulator

import (
	"github.com/xaionaro-go/avmemdecode/types"
)

// Buffer is a growable byte buffer that reallocates to exactly
// current-size + chunk-size on every append instead of doubling: the chunks
// of one call have a bounded and predictable size, and the result is handed
// over without any slack capacity.
//
// Every append copies everything accumulated so far, so n appends of a
// fixed chunk copy O(n²) bytes in total; MaxSize bounds that cost.
//
// The zero value is an empty buffer without a size limit.
type Buffer struct {
	// MaxSize limits the total size; 0 means no limit. Exceeding it is the
	// equivalent of an allocation failure: StatusOutputAllocFailed.
	MaxSize int

	data []byte
}

// Append copies chunk to the tail. chunk may be reused by the caller
// right after the call.
func (b *Buffer) Append(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	newLen := len(b.data) + len(chunk)
	if b.MaxSize > 0 && newLen > b.MaxSize {
		return types.Errorf(types.StatusOutputAllocFailed,
			"unable to grow the output from %d to %d bytes: the limit is %d bytes", len(b.data), newLen, b.MaxSize)
	}
	grown := make([]byte, newLen)
	copy(grown, b.data)
	copy(grown[len(b.data):], chunk)
	b.data = grown
	return nil
}

// Len is the amount of bytes accumulated so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Take transfers ownership of the accumulated bytes to the caller and
// resets the buffer.
func (b *Buffer) Take() []byte {
	data := b.data
	b.data = nil
	return data
}
