// option.go defines options for configuring decode calls.

package decoder

import (
	"github.com/xaionaro-go/avmemdecode/types"
)

type Config struct {
	// MaxInputSize limits the size of the accepted payload (0: no limit).
	MaxInputSize int

	// MaxOutputSize limits the size of the returned buffer (0: no limit).
	MaxOutputSize int

	// SkipDecoderFlush disables draining the delayed frames of the decoder
	// (and the buffered samples of the resampler) after the last packet.
	SkipDecoderFlush bool

	// SampleRate is the output sample rate of DecodeAudio.
	SampleRate int
}

func (cfg Config) PCMFormat() types.PCMFormat {
	f := types.PCMS16Stereo48k
	if cfg.SampleRate > 0 {
		f.SampleRate = cfg.SampleRate
	}
	return f
}

type Option interface {
	apply(*Config)
}

type Options []Option

func (s Options) apply(cfg *Config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) Config() Config {
	cfg := Config{
		SampleRate: types.PCMS16Stereo48k.SampleRate,
	}
	s.apply(&cfg)
	return cfg
}

type OptionMaxInputSize int

func (opt OptionMaxInputSize) apply(cfg *Config) {
	cfg.MaxInputSize = int(opt)
}

type OptionMaxOutputSize int

func (opt OptionMaxOutputSize) apply(cfg *Config) {
	cfg.MaxOutputSize = int(opt)
}

type OptionSkipDecoderFlush bool

func (opt OptionSkipDecoderFlush) apply(cfg *Config) {
	cfg.SkipDecoderFlush = bool(opt)
}

type OptionSampleRate int

func (opt OptionSampleRate) apply(cfg *Config) {
	cfg.SampleRate = int(opt)
}
