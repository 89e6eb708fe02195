package ebml

import (
	"github.com/stewi1014/ebml/encio"
	"github.com/stewi1014/ebml/schema"
)

// Config defines configuration for Encoders and Decoders.
// The zero value is usable; unset fields take the EBML defaults.
type Config struct {
	// Schema resolves element IDs for Decoder.DecodeAny.
	// If nil, schema.Default is used.
	Schema *schema.Schema

	// MaxIDLength is the widest element ID allowed, in bytes.
	// If zero or out of range, it is 4.
	MaxIDLength int

	// MaxSizeLength is the widest element size allowed, in bytes.
	// It is also the width of the size an Encoder reserves in Begin.
	// If zero or out of range, it is 8.
	MaxSizeLength int

	// DisableSeek stops Encoders from seeking, even if the stream can.
	// Masters opened with Begin are then written with an unknown size, and Rewrite fails.
	DisableSeek bool

	// TrackOffsets makes Encoders remember where they write each element, so Encoder.Offset and Encoder.Rewrite work.
	// It has no effect if the Encoder can't seek. Tracked elements are kept until Encoder.Forget is called.
	TrackOffsets bool

	// SkipUnknown makes Decoder.DecodeAny skip elements that aren't in the schema, instead of failing.
	SkipUnknown bool
}

func (c *Config) copyAndFill() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Schema == nil {
		config.Schema = schema.Default
	}

	if config.MaxIDLength <= 0 || config.MaxIDLength > encio.MaxIDWidth {
		config.MaxIDLength = encio.MaxIDWidth
	}

	if config.MaxSizeLength <= 0 || config.MaxSizeLength > encio.MaxVarintWidth {
		config.MaxSizeLength = encio.MaxVarintWidth
	}

	return config
}
