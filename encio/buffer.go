package encio

import (
	"errors"
	"io"
)

// Buffer is an in-memory, seekable buffer for data. It operates similar to bytes.Buffer,
// but reading doesn't consume data, and writes after a Seek overwrite what is already there.
//
// It is useful as a target for writers that go back to patch sizes they didn't know up front.
type Buffer struct {
	buff []byte
	off  int
}

// NewBuffer returns a Buffer reading from, and appending to, buff.
func NewBuffer(buff []byte) *Buffer {
	return &Buffer{buff: buff}
}

// Read implements io.Reader
func (b *Buffer) Read(buff []byte) (int, error) {
	if b.off >= len(b.buff) {
		if len(buff) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(buff, b.buff[b.off:])
	b.off += n
	return n, nil
}

// ReadByte implements io.ByteReader
func (b *Buffer) ReadByte() (byte, error) {
	if b.off >= len(b.buff) {
		return 0, io.EOF
	}
	by := b.buff[b.off]
	b.off++
	return by, nil
}

// Write implements io.Writer
func (b *Buffer) Write(buff []byte) (int, error) {
	b.grow(len(buff))
	n := copy(b.buff[b.off:], buff)
	b.off += n
	return n, nil
}

// WriteByte implements io.ByteWriter
func (b *Buffer) WriteByte(by byte) error {
	b.grow(1)
	b.buff[b.off] = by
	b.off++
	return nil
}

// Seek implements io.Seeker
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.off) + offset
	case io.SeekEnd:
		abs = int64(len(b.buff)) + offset
	default:
		return 0, errors.New("encio.Buffer.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("encio.Buffer.Seek: negative position")
	}
	b.off = int(abs)
	return abs, nil
}

// Bytes returns the whole content of the buffer, regardless of position.
func (b *Buffer) Bytes() []byte { return b.buff }

// Len returns the length of the unread portion of the buffer
func (b *Buffer) Len() int {
	if b.off >= len(b.buff) {
		return 0
	}
	return len(b.buff) - b.off
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.buff = b.buff[:0]
	b.off = 0
}

// grow makes sure n bytes past the current position are addressable.
// Seeking past the end and writing leaves zeros in the gap.
func (b *Buffer) grow(n int) {
	end := b.off + n
	if end <= len(b.buff) {
		return
	}
	if end <= cap(b.buff) {
		l := len(b.buff)
		b.buff = b.buff[:end]
		for i := l; i < end; i++ {
			b.buff[i] = 0
		}
		return
	}
	// must allocate
	nb := make([]byte, end, cap(b.buff)*2+n)
	copy(nb, b.buff)
	b.buff = nb
}
