// duration.go converts FFmpeg timestamps into time.Duration.

// Package avconv converts between libav values and the values of avmemdecode.
package avconv

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

const (
	// see https://ffmpeg.org/doxygen/trunk/group__lavu__time.html#ga2eaefe702f95f619ea6f2d08afa01be1
	avNoPTSValue = uint64(0x8000000000000000)

	// AV_TIME_BASE: the unit of AVFormatContext.duration is a microsecond.
	avTimeBase = 1000000
)

func init() {
	if avNoPTSValue != uint64(any(int64(math.MinInt64)).(int64)) { // to bypass the compiler check
		panic("avNoPTSValue changed")
	}
}

// Duration converts a timestamp in timeBase units; an unset timestamp
// (AV_NOPTS_VALUE) and negative values are reported as zero.
func Duration(t int64, timeBase astiav.Rational) time.Duration {
	if uint64(t) == avNoPTSValue || t < 0 || timeBase.Den() == 0 {
		return 0
	}

	return time.Duration(math.Round(float64(t) * timeBase.Float64() * float64(time.Second)))
}

// ContainerDuration converts the duration of a format context.
func ContainerDuration(fmtCtx *astiav.FormatContext) time.Duration {
	return Duration(fmtCtx.Duration(), astiav.NewRational(1, avTimeBase))
}
