package encio

import (
	"fmt"
	"io"
)

const (
	// MaxVarintWidth is the widest variable-length integer, in bytes.
	MaxVarintWidth = 8

	// MaxVarint is the largest value that can be encoded as a variable-length integer.
	// The all-ones value above it is reserved.
	MaxVarint = uint64(1<<56 - 2)

	// UnknownSize is the reserved all-ones 8 byte value, used as the size of elements whose size isn't known when written.
	UnknownSize = uint64(1<<56 - 1)
)

// VarintWidth returns the width of a variable-length integer from its first byte.
// It returns 0 if the byte has no length marker.
func VarintWidth(first byte) int {
	for width := 1; width <= MaxVarintWidth; width++ {
		if first&(0x80>>uint(width-1)) != 0 {
			return width
		}
	}
	return 0
}

// VarintSize returns the minimal number of bytes needed to encode n.
// Each width w holds 7*w bits of data.
func VarintSize(n uint64) (int, error) {
	if n > MaxVarint {
		return 0, NewError(ErrVarIntTooBig, fmt.Sprintf("%v is larger than %v", n, MaxVarint), 0)
	}

	width := 1
	for n >= 1<<(7*uint(width)) {
		width++
	}
	return width, nil
}

// EncodeVarint encodes n in width bytes to buff, returning the number of bytes written.
// If width is 0, the minimal width is used.
//
// It panics if width is larger than MaxVarintWidth.
func EncodeVarint(buff []byte, n uint64, width int) (int, error) {
	if width < 0 || width > MaxVarintWidth {
		panic(fmt.Sprintf("encio: variable-length integer width %v out of range", width))
	}

	min, err := VarintSize(n)
	if err != nil {
		return 0, err
	}

	switch {
	case width == 0:
		width = min
	case width < min:
		return 0, NewError(ErrSpecSizeTooSmall, fmt.Sprintf("%v needs %v bytes, but %v were asked for", n, min, width), 0)
	}

	if len(buff) < width {
		return 0, NewError(ErrBufferTooSmall, fmt.Sprintf("need %v bytes but buffer is %v", width, len(buff)), 0)
	}

	putVarint(buff, n, width)
	return width, nil
}

// EncodeUnknownSize writes the 8 byte unknown size marker to buff.
func EncodeUnknownSize(buff []byte) (int, error) {
	if len(buff) < MaxVarintWidth {
		return 0, NewError(ErrBufferTooSmall, fmt.Sprintf("need %v bytes but buffer is %v", MaxVarintWidth, len(buff)), 0)
	}
	putVarint(buff, UnknownSize, MaxVarintWidth)
	return MaxVarintWidth, nil
}

func putVarint(buff []byte, n uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		buff[i] = byte(n)
		n >>= 8
	}
	buff[0] |= 0x80 >> uint(width-1)
}

// DecodeVarint decodes a variable-length integer from buff.
// It returns the value without its length marker, and the number of bytes it was encoded in.
func DecodeVarint(buff []byte) (n uint64, width int, err error) {
	if len(buff) == 0 {
		return 0, 0, NewError(ErrBufferTooSmall, "empty buffer", 0)
	}

	width = VarintWidth(buff[0])
	if width == 0 {
		return 0, 0, NewError(ErrInvalidVarInt, fmt.Sprintf("first byte %#02x has no length marker", buff[0]), 0)
	}

	if len(buff) < width {
		return 0, 0, NewError(ErrBufferTooSmall, fmt.Sprintf("need %v bytes but buffer is %v", width, len(buff)), 0)
	}

	return getVarint(buff, width), width, nil
}

func getVarint(buff []byte, width int) uint64 {
	n := uint64(buff[0] & (0xff >> uint(width)))
	for i := 1; i < width; i++ {
		n = n<<8 | uint64(buff[i])
	}
	return n
}

// Varint provides methods for reading and writing variable-length integers.
type Varint [MaxVarintWidth]byte

// Encode writes n to w in its minimal width.
// It returns the number of bytes written.
func (buff *Varint) Encode(w io.Writer, n uint64) (int, error) {
	return buff.EncodeWidth(w, n, 0)
}

// EncodeWidth writes n to w in width bytes.
// If width is 0, the minimal width is used.
func (buff *Varint) EncodeWidth(w io.Writer, n uint64, width int) (int, error) {
	l, err := EncodeVarint(buff[:], n, width)
	if err != nil {
		return 0, err
	}
	return l, Write(buff[:l], w)
}

// EncodeUnknownSize writes the unknown size marker to w.
func (buff *Varint) EncodeUnknownSize(w io.Writer) (int, error) {
	l, _ := EncodeUnknownSize(buff[:])
	return l, Write(buff[:l], w)
}

// Decode reads a variable-length integer from r.
// It returns the value and the number of bytes read.
func (buff *Varint) Decode(r io.Reader) (uint64, int, error) {
	if err := Read(buff[:1], r); err != nil {
		return 0, 0, err
	}

	width := VarintWidth(buff[0])
	if width == 0 {
		return 0, 1, NewError(ErrInvalidVarInt, fmt.Sprintf("first byte %#02x has no length marker", buff[0]), 0)
	}

	if err := Read(buff[1:width], r); err != nil {
		return 0, 1, Truncated(err)
	}

	return getVarint(buff[:], width), width, nil
}

// Truncated turns an io.EOF part way through a value into io.ErrUnexpectedEOF.
// Use it once the first byte of something has already been read.
func Truncated(err error) error {
	if ioErr, ok := err.(IOError); ok && ioErr.Err == io.EOF {
		ioErr.Err = io.ErrUnexpectedEOF
		return ioErr
	}
	return err
}
