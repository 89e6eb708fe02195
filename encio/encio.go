// Package encio provides the EBML integer codecs, io methods relevant to encoding, as well as error types.
//
// Variable-length integers (Varint), element IDs (ID) and element body integers (Int) are each
// available as buffer functions, and as small stream codecs that keep their own scratch space.
package encio

import (
	"errors"
	"fmt"
	"io"
)

// TooBig is a byte count used for simple sanity checking before allocating buffers for element bodies.
// ErrBadBodySize is returned if a declared size exceeds this.
//
// By default it is 32MB on 32bit machines, and 128MB on 64bit machines.
// Feel free to change it.
var TooBig = uint64(1 << (25 + ((^uint(0) >> 32) & 2)))

// Read reads from r, completely filling the buffer. It provides error handling with as little overhead as possible.
// In an ideal read, only a single int equality check is performed. If the read reports the whole buffer is read, returned errors are ignored.
//
// If r ends before anything is read, the returned IOError wraps io.EOF.
// If it ends part way through, it wraps io.ErrUnexpectedEOF.
func Read(buff []byte, r io.Reader) error {
	if len(buff) == 0 {
		return nil
	}

	n, err := r.Read(buff)
	if n == len(buff) {
		return nil
	}

	end := n
	for end < len(buff) && err == nil {
		n, err = r.Read(buff[end:])
		end += n
		if n == 0 && err == nil {
			err = io.ErrNoProgress
		}
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewReadError(
				errors.New("bad io.Reader implementation"),
				fmt.Sprintf("reported %v bytes read, but buffer is only %v bytes", end, len(buff)),
				1,
			)
		case errors.Is(err, io.EOF) && end == 0:
			return NewReadError(
				io.EOF,
				fmt.Sprintf("want %v bytes but got none", len(buff)),
				1,
			)
		case errors.Is(err, io.EOF):
			return NewReadError(
				io.ErrUnexpectedEOF,
				fmt.Sprintf("want %v bytes but only got %v", len(buff), end),
				1,
			)
		default:
			return NewReadError(
				err,
				fmt.Sprintf("want %v bytes but only got %v", len(buff), end),
				1,
			)
		}
	}
	return nil
}

// Write writes to w from buff, handling errors of io.Writer with as little overhead as possible.
// In an ideal write, only a single int equality check is performed.
// Any error from w is returned wrapped in an IOError.
func Write(buff []byte, w io.Writer) error {
	n, err := w.Write(buff)
	if n == len(buff) {
		if err != nil {
			return NewWriteError(err, "", 1)
		}
		return nil
	}

	end := n
	for end < len(buff) && err == nil && n > 0 {
		fmt.Fprintf(Warnings, "ebml: %T is a bad io.Writer implementation. It wrote short (given %v bytes but reported only %v written) yet returned no error. Will call it again...\n", w, len(buff)-(end-n), n)
		n, err = w.Write(buff[end:])
		end += n
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewWriteError(
				errors.New("bad io.Writer implementation"),
				fmt.Sprintf("Write() reported %v bytes written, but was only given %v bytes", end, len(buff)),
				1,
			)
		case err == nil:
			return NewWriteError(
				io.ErrShortWrite,
				fmt.Sprintf("want %v bytes but only wrote %v bytes", len(buff), end),
				1,
			)
		default:
			return NewWriteError(
				err,
				fmt.Sprintf("want %v bytes but wrote %v bytes", len(buff), end),
				1,
			)
		}
	}
	return nil
}

// Zeros writes n zero bytes to w.
func Zeros(w io.Writer, n uint64) error {
	var buff [512]byte
	for n > 0 {
		l := uint64(len(buff))
		if n < l {
			l = n
		}
		if err := Write(buff[:l], w); err != nil {
			return err
		}
		n -= l
	}
	return nil
}

// Discard reads and throws away n bytes from r.
func Discard(r io.Reader, n uint64) error {
	var buff [512]byte
	for n > 0 {
		l := uint64(len(buff))
		if n < l {
			l = n
		}
		if err := Read(buff[:l], r); err != nil {
			if errors.Is(err, io.EOF) {
				return NewReadError(io.ErrUnexpectedEOF, fmt.Sprintf("%v bytes left to discard", n), 0)
			}
			return err
		}
		n -= l
	}
	return nil
}

// CountingWriter counts the bytes written to the underlying writer.
type CountingWriter struct {
	W io.Writer
	N int64
}

// Write implements io.Writer.
func (c *CountingWriter) Write(buff []byte) (int, error) {
	n, err := c.W.Write(buff)
	c.N += int64(n)
	return n, err
}

// CountingReader counts the bytes read from the underlying reader.
type CountingReader struct {
	R io.Reader
	N int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(buff []byte) (int, error) {
	n, err := c.R.Read(buff)
	c.N += int64(n)
	return n, err
}

// Unreader is a reader that can take back bytes it has returned, to return them again on the next read.
type Unreader interface {
	io.Reader
	Unread(buff []byte)
}

// PushbackReader is an Unreader over R.
// It is used to look at the ID of the next element without consuming it.
type PushbackReader struct {
	R    io.Reader
	back []byte
}

// Read implements io.Reader.
// Bytes that were pushed back are returned before reading from R.
func (p *PushbackReader) Read(buff []byte) (int, error) {
	if len(p.back) > 0 {
		n := copy(buff, p.back)
		p.back = p.back[n:]
		return n, nil
	}
	return p.R.Read(buff)
}

// Unread implements Unreader.
func (p *PushbackReader) Unread(buff []byte) {
	p.back = append(append([]byte(nil), buff...), p.back...)
}

// Buffered returns the number of pushed back bytes not yet read again.
func (p *PushbackReader) Buffered() int { return len(p.back) }

// Reset drops any pushed back bytes.
func (p *PushbackReader) Reset() { p.back = nil }
