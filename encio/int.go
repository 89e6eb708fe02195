package encio

import (
	"fmt"
	"io"
)

// MaxIntWidth is the widest integer body, in bytes.
const MaxIntWidth = 8

// UintSize returns the minimal number of big-endian bytes needed to hold n.
// Zero needs no bytes at all.
func UintSize(n uint64) int {
	size := 0
	for n > 0 {
		n >>= 8
		size++
	}
	return size
}

// IntSize returns the minimal number of two's complement big-endian bytes that sign-extend back to n.
// Zero needs no bytes at all.
func IntSize(n int64) int {
	if n == 0 {
		return 0
	}
	size := 1
	for size < MaxIntWidth {
		shift := uint(8*size - 1)
		if n >= -(1<<shift) && n < 1<<shift {
			break
		}
		size++
	}
	return size
}

// EncodeUint writes n to buff in UintSize(n) bytes, returning the number of bytes written.
// Buff must be large enough to write the int, as a general rule, it should be 8 bytes large.
func EncodeUint(buff []byte, n uint64) int {
	size := UintSize(n)
	for i := size - 1; i >= 0; i-- {
		buff[i] = byte(n)
		n >>= 8
	}
	return size
}

// EncodeInt writes n to buff in IntSize(n) bytes, returning the number of bytes written.
func EncodeInt(buff []byte, n int64) int {
	size := IntSize(n)
	for i := size - 1; i >= 0; i-- {
		buff[i] = byte(n)
		n >>= 8
	}
	return size
}

// DecodeUint reads a big-endian unsigned integer from the whole of buff.
// An empty buffer decodes to 0.
func DecodeUint(buff []byte) (uint64, error) {
	if len(buff) > MaxIntWidth {
		return 0, NewError(ErrBadBodySize, fmt.Sprintf("%v bytes is too wide for an integer", len(buff)), 0)
	}

	var n uint64
	for _, b := range buff {
		n = n<<8 | uint64(b)
	}
	return n, nil
}

// DecodeInt reads a big-endian, sign-extended integer from the whole of buff.
// An empty buffer decodes to 0.
func DecodeInt(buff []byte) (int64, error) {
	if len(buff) > MaxIntWidth {
		return 0, NewError(ErrBadBodySize, fmt.Sprintf("%v bytes is too wide for an integer", len(buff)), 0)
	}
	if len(buff) == 0 {
		return 0, nil
	}

	n := int64(int8(buff[0]))
	for _, b := range buff[1:] {
		n = n<<8 | int64(b)
	}
	return n, nil
}

// EncodeUint64 writes n to buff as 8 big-endian bytes.
func EncodeUint64(buff []byte, n uint64) {
	buff[0] = uint8(n >> 56)
	buff[1] = uint8(n >> 48)
	buff[2] = uint8(n >> 40)
	buff[3] = uint8(n >> 32)
	buff[4] = uint8(n >> 24)
	buff[5] = uint8(n >> 16)
	buff[6] = uint8(n >> 8)
	buff[7] = uint8(n)
}

// DecodeUint64 reads 8 big-endian bytes from buff.
func DecodeUint64(buff []byte) uint64 {
	n := uint64(buff[0]) << 56
	n |= uint64(buff[1]) << 48
	n |= uint64(buff[2]) << 40
	n |= uint64(buff[3]) << 32
	n |= uint64(buff[4]) << 24
	n |= uint64(buff[5]) << 16
	n |= uint64(buff[6]) << 8
	n |= uint64(buff[7])
	return n
}

// EncodeUint32 writes n to buff as 4 big-endian bytes.
func EncodeUint32(buff []byte, n uint32) {
	buff[0] = uint8(n >> 24)
	buff[1] = uint8(n >> 16)
	buff[2] = uint8(n >> 8)
	buff[3] = uint8(n)
}

// DecodeUint32 reads 4 big-endian bytes from buff.
func DecodeUint32(buff []byte) uint32 {
	n := uint32(buff[0]) << 24
	n |= uint32(buff[1]) << 16
	n |= uint32(buff[2]) << 8
	n |= uint32(buff[3])
	return n
}

// Int provides methods for reading and writing integer element bodies.
// The width of a body isn't part of it; it comes from the element's size.
type Int [MaxIntWidth]byte

// EncodeUint writes n to w in its minimal width.
// It returns the number of bytes written.
func (buff *Int) EncodeUint(w io.Writer, n uint64) (int, error) {
	l := EncodeUint(buff[:], n)
	return l, Write(buff[:l], w)
}

// EncodeInt writes n to w in its minimal width.
// It returns the number of bytes written.
func (buff *Int) EncodeInt(w io.Writer, n int64) (int, error) {
	l := EncodeInt(buff[:], n)
	return l, Write(buff[:l], w)
}

// DecodeUint reads exactly width bytes from r as an unsigned integer.
func (buff *Int) DecodeUint(r io.Reader, width int) (uint64, error) {
	if width > MaxIntWidth || width < 0 {
		return 0, NewError(ErrBadBodySize, fmt.Sprintf("%v bytes is too wide for an integer", width), 0)
	}
	if err := Read(buff[:width], r); err != nil {
		return 0, Truncated(err)
	}
	return DecodeUint(buff[:width])
}

// DecodeInt reads exactly width bytes from r as a signed integer.
func (buff *Int) DecodeInt(r io.Reader, width int) (int64, error) {
	if width > MaxIntWidth || width < 0 {
		return 0, NewError(ErrBadBodySize, fmt.Sprintf("%v bytes is too wide for an integer", width), 0)
	}
	if err := Read(buff[:width], r); err != nil {
		return 0, Truncated(err)
	}
	return DecodeInt(buff[:width])
}
