package decoder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avmemdecode/accumulator"
	"github.com/xaionaro-go/avmemdecode/types"
)

const (
	testSourceRate    = 44100
	testFrameSamples  = 1024
	testOutPerFrame   = testFrameSamples * 48000 / testSourceRate
	testAudioStreamID = 1
)

func audioMedia(nPackets int) *fakeMedia {
	return &fakeMedia{
		streams: []types.StreamInfo{
			{Index: 0, MediaType: types.MediaTypeVideo, CodecName: "h264"},
			{Index: testAudioStreamID, MediaType: types.MediaTypeAudio, CodecName: "opus", SampleRate: testSourceRate, Channels: 2},
		},
		packets: interleave(packetsOf(0, nPackets), packetsOf(testAudioStreamID, nPackets)),
		framesOf: func(pkt *fakePacket) []fakeFrame {
			return []fakeFrame{{samples: testFrameSamples, value: byte(pkt.payload)}}
		},
		audioParams: types.AudioParams{SampleFormat: "fltp", SampleRate: testSourceRate, Channels: 2, ChannelLayout: "stereo"},
	}
}

func requireBalanced(t *testing.T, evs events) {
	t.Helper()
	opened := map[string]int{}
	for _, ev := range evs {
		if rest, ok := strings.CutPrefix(ev, "open:"); ok {
			kind, _, _ := strings.Cut(rest, ":")
			opened[kind]++
			continue
		}
		if kind, ok := strings.CutPrefix(ev, "close:"); ok {
			opened[kind]--
		}
	}
	for kind, n := range opened {
		require.Zerof(t, n, "%s: unbalanced open/close in %v", kind, evs)
	}
}

func TestDecodeAudio(t *testing.T) {
	t.Parallel()

	const nPackets = 5
	b := newFakeBackend(audioMedia(nPackets))
	res, err := DecodeAudio(context.Background(), b, fakeInput())
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Equal(t, nPackets*testOutPerFrame*4, res.ByteCount)
	require.Len(t, res.PCM, res.ByteCount)
	require.Zero(t, res.ByteCount%4)
	require.Equal(t, types.PCMS16Stereo48k, res.Format)
	require.Equal(t, nPackets*testOutPerFrame, res.Samples())
	for i := 0; i < nPackets; i++ {
		require.Equal(t, byte(i+1), res.PCM[i*testOutPerFrame*4], "chunk %d", i)
	}

	require.Equal(t, events{
		"open:container",
		"open:decoder:1",
		"open:resampler",
		"close:resampler",
		"close:decoder",
		"close:container",
	}, b.events)
	require.Equal(t, 2*nPackets, b.packetUnrefs, "every packet read must be released")
	require.Equal(t, nPackets, b.frameUnrefs, "every frame must be released")
	require.Equal(t, fakeInput(), b.readPayload, "the demuxer must see exactly the payload")
}

func TestDecodeAudioIsDeterministic(t *testing.T) {
	t.Parallel()

	input := fakeInput()
	res0, err := DecodeAudio(context.Background(), newFakeBackend(audioMedia(7)), input)
	require.NoError(t, err)
	res1, err := DecodeAudio(context.Background(), newFakeBackend(audioMedia(7)), input)
	require.NoError(t, err)
	require.Equal(t, res0.PCM, res1.PCM)
	require.Equal(t, fakeInput(), input, "the input must not be modified")
}

func TestDecodeAudioSetupFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      []byte
		opts       []Option
		modify     func(*fakeMedia)
		wantStatus types.Status
	}{
		{
			name:       "empty input",
			input:      []byte{},
			wantStatus: types.StatusOpenFailed,
		},
		{
			name:       "unknown signature",
			input:      []byte("definitely not a container"),
			wantStatus: types.StatusOpenFailed,
		},
		{
			name:       "input too big",
			opts:       []Option{OptionMaxInputSize(4)},
			wantStatus: types.StatusBufferAllocFailed,
		},
		{
			name:       "stream info",
			modify:     func(m *fakeMedia) { m.findStreamInfoErr = errors.New("no info") },
			wantStatus: types.StatusStreamInfoFailed,
		},
		{
			name: "no audio stream",
			modify: func(m *fakeMedia) {
				m.streams = m.streams[:1]
			},
			wantStatus: types.StatusNoStreamFound,
		},
		{
			name:       "decoder open (untagged)",
			modify:     func(m *fakeMedia) { m.openDecoderErr = errors.New("boom") },
			wantStatus: types.StatusDecoderOpenFailed,
		},
		{
			name: "unsupported codec",
			modify: func(m *fakeMedia) {
				m.openDecoderErr = types.Errorf(types.StatusUnsupportedCodec, "no decoder for 'opus'")
			},
			wantStatus: types.StatusUnsupportedCodec,
		},
		{
			name: "params copy",
			modify: func(m *fakeMedia) {
				m.openDecoderErr = types.Errorf(types.StatusParamCopyFailed, "boom")
			},
			wantStatus: types.StatusParamCopyFailed,
		},
		{
			name:       "resampler",
			modify:     func(m *fakeMedia) { m.resamplerErr = errors.New("boom") },
			wantStatus: types.StatusResamplerInitFailed,
		},
		{
			name:       "resampler with invalid params",
			modify:     func(m *fakeMedia) { m.audioParams.SampleRate = 0 },
			wantStatus: types.StatusResamplerInitFailed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			media := audioMedia(3)
			if tt.modify != nil {
				tt.modify(media)
			}
			input := tt.input
			if input == nil {
				input = fakeInput()
			}
			b := newFakeBackend(media)
			res, err := DecodeAudio(context.Background(), b, input, tt.opts...)
			require.Error(t, err)
			require.Nil(t, res)
			require.Equal(t, tt.wantStatus, types.StatusOf(err), err.Error())
			require.ErrorIs(t, err, types.ErrDecode{Status: tt.wantStatus})
			requireBalanced(t, b.events)
			require.Zero(t, b.packetUnrefs, "no packet may be read before the setup is complete")
		})
	}
}

func TestDecodeAudioRejectedPacketsAreSkipped(t *testing.T) {
	t.Parallel()

	media := audioMedia(4)
	media.rejects = func(pkt *fakePacket) bool {
		return pkt.payload == 2
	}
	res, err := DecodeAudio(context.Background(), newFakeBackend(media), fakeInput())
	require.NoError(t, err)
	require.Equal(t, 3*testOutPerFrame*4, res.ByteCount)
	require.Equal(t, byte(3), res.PCM[testOutPerFrame*4])
}

func TestDecodeAudioFatalDecodeError(t *testing.T) {
	t.Parallel()

	media := audioMedia(4)
	media.fatalAfter = 2
	b := newFakeBackend(media)
	res, err := DecodeAudio(context.Background(), b, fakeInput())
	require.Error(t, err)
	require.Nil(t, res, "no partial output")
	require.Equal(t, types.StatusDecodeFailed, types.StatusOf(err))
	requireBalanced(t, b.events)
	require.Equal(t, 2, b.frameUnrefs)
}

func TestDecodeAudioOutputLimit(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(audioMedia(4))
	res, err := DecodeAudio(context.Background(), b, fakeInput(), OptionMaxOutputSize(testOutPerFrame*4*2))
	require.Error(t, err)
	require.Nil(t, res)
	require.Equal(t, types.StatusOutputAllocFailed, types.StatusOf(err))
	requireBalanced(t, b.events)
}

func TestDecodeAudioNothingProduced(t *testing.T) {
	t.Parallel()

	media := audioMedia(3)
	media.framesOf = func(pkt *fakePacket) []fakeFrame {
		return []fakeFrame{{samples: 0, value: 1}, {samples: testFrameSamples, value: 0xff}}
	}
	res, err := DecodeAudio(context.Background(), newFakeBackend(media), fakeInput())
	require.NoError(t, err)
	require.Zero(t, res.ByteCount)
	require.Empty(t, res.PCM)
}

func TestDecodeAudioFlush(t *testing.T) {
	t.Parallel()

	const tail = 100
	newMedia := func() *fakeMedia {
		media := audioMedia(2)
		media.delayed = []fakeFrame{{samples: testFrameSamples, value: 9}}
		media.resampleTail = tail
		return media
	}
	tailOut := tail * 48000 / testSourceRate

	res, err := DecodeAudio(context.Background(), newFakeBackend(newMedia()), fakeInput())
	require.NoError(t, err)
	require.Equal(t, (3*testOutPerFrame+tailOut)*4, res.ByteCount)
	require.Equal(t, byte(9), res.PCM[2*testOutPerFrame*4])
	require.Equal(t, byte(0xee), res.PCM[len(res.PCM)-1])

	res, err = DecodeAudio(context.Background(), newFakeBackend(newMedia()), fakeInput(), OptionSkipDecoderFlush(true))
	require.NoError(t, err)
	require.Equal(t, 2*testOutPerFrame*4, res.ByteCount)
}

func TestDecodeAudioSampleRate(t *testing.T) {
	t.Parallel()

	res, err := DecodeAudio(context.Background(), newFakeBackend(audioMedia(1)), fakeInput(), OptionSampleRate(testSourceRate))
	require.NoError(t, err)
	require.Equal(t, testSourceRate, res.Format.SampleRate)
	require.Equal(t, testFrameSamples*4, res.ByteCount)
}

func TestDecodeAudioReadErrorEndsInput(t *testing.T) {
	t.Parallel()

	media := audioMedia(2)
	media.readErr = errors.New("truncated")
	res, err := DecodeAudio(context.Background(), newFakeBackend(media), fakeInput())
	require.NoError(t, err)
	require.Equal(t, 2*testOutPerFrame*4, res.ByteCount)
}

func TestDecodeAudioCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newFakeBackend(audioMedia(2))
	res, err := DecodeAudio(ctx, b, fakeInput())
	require.Nil(t, res)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusDecodeFailed, types.StatusOf(err))
	requireBalanced(t, b.events)
}

func TestDecodeAudioResamplerConfigureFailure(t *testing.T) {
	t.Parallel()

	media := audioMedia(5)
	media.resamplerConfigErr = true
	b := newFakeBackend(media)
	res, err := DecodeAudio(context.Background(), b, fakeInput())
	require.Error(t, err)
	require.Nil(t, res)
	require.Equal(t, types.StatusResamplerInitFailed, types.StatusOf(err), err.Error())
	require.Equal(t, -10, types.StatusOf(err).Code())
	requireBalanced(t, b.events)
}

func TestAudioPostProcessorFlushIsNotASkippedFrame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newFakeBackend(audioMedia(0))
	r := &fakeResampler{backend: b, inRate: testSourceRate, out: types.PCMS16Stereo48k}
	var output accumulator.Buffer
	pp := NewAudioPostProcessor(r, types.PCMS16Stereo48k, &output)

	frameUnrefs := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, pp.ProcessFrame(ctx, &fakeFrame{samples: testFrameSamples, value: 1, unrefs: &frameUnrefs}))
	}
	require.NoError(t, pp.Flush(ctx))

	assert.Zero(t, pp.FramesSkipped)
	assert.Equal(t, uint64(3*testOutPerFrame), pp.SamplesWritten)
	assert.Equal(t, 3*testOutPerFrame*4, output.Len())
}
