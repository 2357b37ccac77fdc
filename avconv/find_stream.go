package avconv

import (
	"github.com/asticode/go-astiav"
)

// FindStreamByIndex returns nil if the container has no stream of that index.
func FindStreamByIndex(
	fmtCtx *astiav.FormatContext,
	streamIndex int,
) *astiav.Stream {
	for _, stream := range fmtCtx.Streams() {
		if stream.Index() == streamIndex {
			return stream
		}
	}
	return nil
}
