package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xaionaro-go/avmemdecode/types"
)

var fakeSignature = []byte("FAKE")

type events []string

func (e *events) add(s string) {
	*e = append(*e, s)
}

type fakePacket struct {
	stream  int
	payload int
	unrefs  *int
}

func (p *fakePacket) StreamIndex() int { return p.stream }
func (p *fakePacket) Unref()           { *p.unrefs++ }

type fakeFrame struct {
	samples int
	width   int
	height  int
	value   byte
	unrefs  *int
}

func (f *fakeFrame) NbSamples() int { return f.samples }
func (f *fakeFrame) Width() int     { return f.width }
func (f *fakeFrame) Height() int    { return f.height }
func (f *fakeFrame) Unref()         { *f.unrefs++ }

// fakeMedia describes what the fake container contains and how the fake
// collaborators behave on it.
type fakeMedia struct {
	streams []types.StreamInfo
	packets []fakePacket

	findStreamInfoErr error
	openDecoderErr    error
	readErr           error
	resamplerErr      error
	converterErr      error

	// framesOf returns the frames the decoder outputs for a packet.
	framesOf func(pkt *fakePacket) []fakeFrame
	// rejects tells whether the decoder rejects a packet.
	rejects func(pkt *fakePacket) bool
	// fatalAfter makes ReceiveFrame fail after that many frames (if > 0).
	fatalAfter int
	// delayed frames are only output after the end-of-stream packet.
	delayed []fakeFrame

	audioParams types.AudioParams
	// resampleTail is the amount of samples the resampler has buffered.
	resampleTail int
	// resamplerConfigErr makes the conversions fail the way libswresample
	// does when it cannot be configured from the first frame.
	resamplerConfigErr bool
}

type fakeBackend struct {
	media  *fakeMedia
	events events

	packetUnrefs int
	frameUnrefs  int
	opened       int
	readPayload  []byte
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend(media *fakeMedia) *fakeBackend {
	return &fakeBackend{media: media}
}

func (b *fakeBackend) OpenContainer(ctx context.Context, r io.ReadSeeker) (Container, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, types.NewError(types.StatusOpenFailed, err)
	}
	b.readPayload = payload
	if !bytes.HasPrefix(payload, fakeSignature) {
		return nil, types.Errorf(types.StatusOpenFailed, "unknown signature")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	b.opened++
	b.events.add("open:container")
	return &fakeContainer{backend: b}, nil
}

func (b *fakeBackend) NewResampler(ctx context.Context, in types.AudioParams, out types.PCMFormat) (Resampler, error) {
	if b.media.resamplerErr != nil {
		return nil, b.media.resamplerErr
	}
	if in.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", in.SampleRate)
	}
	b.events.add("open:resampler")
	return &fakeResampler{backend: b, inRate: in.SampleRate, out: out, tail: b.media.resampleTail}, nil
}

func (b *fakeBackend) NewPixelConverter(ctx context.Context, res types.Resolution, first Frame) (PixelConverter, error) {
	if b.media.converterErr != nil {
		return nil, b.media.converterErr
	}
	b.events.add(fmt.Sprintf("open:converter:%s", res))
	return &fakeConverter{backend: b, res: res}, nil
}

type fakeContainer struct {
	backend *fakeBackend
	pos     int
}

func (c *fakeContainer) FindStreamInfo(ctx context.Context) error {
	return c.backend.media.findStreamInfoErr
}

func (c *fakeContainer) Streams() []types.StreamInfo { return c.backend.media.streams }
func (c *fakeContainer) FormatName() string          { return "fake" }
func (c *fakeContainer) Duration() time.Duration     { return time.Second }

func (c *fakeContainer) ReadPacket(ctx context.Context) (Packet, error) {
	media := c.backend.media
	if c.pos >= len(media.packets) {
		if media.readErr != nil {
			return nil, media.readErr
		}
		return nil, io.EOF
	}
	pkt := media.packets[c.pos]
	c.pos++
	pkt.unrefs = &c.backend.packetUnrefs
	return &pkt, nil
}

func (c *fakeContainer) OpenDecoder(ctx context.Context, streamIndex int) (Decoder, error) {
	if err := c.backend.media.openDecoderErr; err != nil {
		return nil, err
	}
	c.backend.events.add(fmt.Sprintf("open:decoder:%d", streamIndex))
	return &fakeDecoder{backend: c.backend}, nil
}

func (c *fakeContainer) Close(ctx context.Context) error {
	c.backend.events.add("close:container")
	return nil
}

type fakeDecoder struct {
	backend  *fakeBackend
	queue    []fakeFrame
	received int
	eos      bool
}

func (d *fakeDecoder) SendPacket(ctx context.Context, pkt Packet) error {
	media := d.backend.media
	if pkt == nil {
		d.eos = true
		d.queue = append(d.queue, media.delayed...)
		return nil
	}
	p := pkt.(*fakePacket)
	if media.rejects != nil && media.rejects(p) {
		return errors.New("invalid data")
	}
	if media.framesOf != nil {
		d.queue = append(d.queue, media.framesOf(p)...)
	}
	return nil
}

func (d *fakeDecoder) ReceiveFrame(ctx context.Context) (Frame, error) {
	media := d.backend.media
	if media.fatalAfter > 0 && d.received >= media.fatalAfter {
		return nil, errors.New("corrupted bitstream")
	}
	if len(d.queue) == 0 {
		if d.eos {
			return nil, io.EOF
		}
		return nil, ErrNeedMoreInput
	}
	f := d.queue[0]
	d.queue = d.queue[1:]
	d.received++
	f.unrefs = &d.backend.frameUnrefs
	return &f, nil
}

func (d *fakeDecoder) AudioParams() types.AudioParams { return d.backend.media.audioParams }

func (d *fakeDecoder) Close(ctx context.Context) error {
	d.backend.events.add("close:decoder")
	return nil
}

// fakeResampler converts the sample rate by plain proportion; every output
// byte equals the frame's value.
type fakeResampler struct {
	backend *fakeBackend
	inRate  int
	out     types.PCMFormat
	tail    int
}

func (r *fakeResampler) MaxOutSamples(in int) int {
	return (in+r.tail)*r.out.SampleRate/r.inRate + 1
}

func (r *fakeResampler) Convert(ctx context.Context, dst []byte, f Frame) (int, error) {
	ff := f.(*fakeFrame)
	if r.backend.media.resamplerConfigErr {
		return 0, types.NewError(types.StatusResamplerInitFailed, errors.New("swr_init: invalid argument"))
	}
	if ff.value == 0xff {
		return 0, errors.New("unable to convert")
	}
	n := ff.samples * r.out.SampleRate / r.inRate
	for i := range dst[:n*r.out.BytesPerFrame()] {
		dst[i] = ff.value
	}
	return n, nil
}

func (r *fakeResampler) Flush(ctx context.Context, dst []byte) (int, error) {
	n := r.tail * r.out.SampleRate / r.inRate
	r.tail = 0
	for i := range dst[:n*r.out.BytesPerFrame()] {
		dst[i] = 0xee
	}
	return n, nil
}

func (r *fakeResampler) Close(ctx context.Context) error {
	r.backend.events.add("close:resampler")
	return nil
}

// fakeConverter fills the whole image with the frame's value; a frame of
// value 0 produces no rows.
type fakeConverter struct {
	backend *fakeBackend
	res     types.Resolution
}

func (c *fakeConverter) Convert(ctx context.Context, dst []byte, f Frame) (int, error) {
	ff := f.(*fakeFrame)
	if ff.value == 0 {
		return 0, nil
	}
	if ff.value == 0xff {
		return -1, errors.New("unable to scale")
	}
	if len(dst) != c.res.RGBASize() {
		return 0, fmt.Errorf("unexpected buffer size %d", len(dst))
	}
	for i := range dst {
		dst[i] = ff.value
	}
	return int(c.res.Height), nil
}

func (c *fakeConverter) Close(ctx context.Context) error {
	c.backend.events.add("close:converter")
	return nil
}

func fakeInput() []byte {
	return append(append([]byte{}, fakeSignature...), "payload"...)
}

func packetsOf(stream int, n int) []fakePacket {
	pkts := make([]fakePacket, 0, n)
	for i := 0; i < n; i++ {
		pkts = append(pkts, fakePacket{stream: stream, payload: i + 1})
	}
	return pkts
}

func interleave(a, b []fakePacket) []fakePacket {
	var out []fakePacket
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}
