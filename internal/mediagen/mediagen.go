// Package mediagen generates small uncompressed media payloads for tests:
// FFmpeg demuxes and decodes them without any optional codec.
package mediagen

import (
	"bytes"
	"fmt"
	"math"

	"github.com/youpy/go-wav"
)

// WAV returns a pcm_s16le WAV payload with a sine of freq Hz in every
// channel. channels must be 1 or 2.
func WAV(sampleRate int, channels int, nSamples int, freq float64) []byte {
	samples := make([]wav.Sample, nSamples)
	for i := range samples {
		v := int(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 8000)
		samples[i].Values[0] = v
		if channels > 1 {
			samples[i].Values[1] = -v
		}
	}

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(nSamples), uint16(channels), uint32(sampleRate), 16)
	if err := w.WriteSamples(samples); err != nil {
		panic(fmt.Errorf("unable to write WAV samples: %w", err))
	}
	return buf.Bytes()
}

// Y4M returns a YUV4MPEG2 (rawvideo, yuv420p) payload of nFrames frames.
// Frame i has luma i*16 and a horizontal gradient in the chroma planes, so
// consecutive frames differ.
func Y4M(width int, height int, nFrames int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "YUV4MPEG2 W%d H%d F25:1 Ip A1:1 C420jpeg\n", width, height)

	cw, ch := (width+1)/2, (height+1)/2
	for i := 0; i < nFrames; i++ {
		buf.WriteString("FRAME\n")
		buf.Write(bytes.Repeat([]byte{byte(16 + i*16)}, width*height))
		for plane := 0; plane < 2; plane++ {
			for y := 0; y < ch; y++ {
				for x := 0; x < cw; x++ {
					buf.WriteByte(byte(64 + plane*64 + x*64/cw))
				}
			}
		}
	}
	return buf.Bytes()
}
