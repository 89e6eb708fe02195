package encio

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// ChecksumSize is the size of an EBML CRC-32 element's body.
const ChecksumSize = 4

// EncodeChecksum writes sum to buff the way EBML stores CRC-32 values; little-endian.
func EncodeChecksum(buff []byte, sum uint32) {
	buff[0] = uint8(sum)
	buff[1] = uint8(sum >> 8)
	buff[2] = uint8(sum >> 16)
	buff[3] = uint8(sum >> 24)
}

// DecodeChecksum reads a little-endian CRC-32 value from buff.
func DecodeChecksum(buff []byte) uint32 {
	n := uint32(buff[0])
	n |= uint32(buff[1]) << 8
	n |= uint32(buff[2]) << 16
	n |= uint32(buff[3]) << 24
	return n
}

// Checksum returns the IEEE CRC-32 of buff.
func Checksum(buff []byte) uint32 {
	return crc32.ChecksumIEEE(buff)
}

// NewChecksumReader returns a ChecksumReader hashing everything read from r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{
		r:      r,
		hasher: crc32.NewIEEE(),
	}
}

// ChecksumReader computes the CRC-32 of the data passing through it.
// The last few bytes read are held out of the hash until more are read, so they can be taken back with Unhash.
type ChecksumReader struct {
	r      io.Reader
	hasher hash.Hash32
	held   []byte
}

// checksumHold is how many of the most recently read bytes are held out of the hash.
const checksumHold = MaxIDWidth

// Read implements io.Reader.
func (c *ChecksumReader) Read(buff []byte) (int, error) {
	n, err := c.r.Read(buff)
	if n >= checksumHold {
		c.hasher.Write(c.held)
		c.hasher.Write(buff[:n-checksumHold])
		c.held = append(c.held[:0], buff[n-checksumHold:n]...)
		return n, err
	}

	c.held = append(c.held, buff[:n]...)
	if over := len(c.held) - checksumHold; over > 0 {
		c.hasher.Write(c.held[:over])
		c.held = append(c.held[:0], c.held[over:]...)
	}
	return n, err
}

// Unhash removes the last n bytes read from the checksum.
// It panics if n is more than MaxIDWidth, or more than has been read.
func (c *ChecksumReader) Unhash(n int) {
	if n > len(c.held) {
		panic(fmt.Sprintf("encio: can't unhash %v bytes, only %v are held", n, len(c.held)))
	}
	c.held = c.held[:len(c.held)-n]
}

// Verify compares the CRC-32 of everything read so far with want.
// It returns a wrapped ErrChecksum if they differ.
func (c *ChecksumReader) Verify(want uint32) error {
	c.hasher.Write(c.held)
	c.held = c.held[:0]

	if got := c.hasher.Sum32(); got != want {
		return NewError(ErrChecksum, fmt.Sprintf("stored CRC-32 is %#08x but data hashes to %#08x", want, got), 0)
	}
	return nil
}
