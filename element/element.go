// Package element provides EBML elements, and the framing that writes and reads them.
//
// Every element is framed as its ID, the size of its body as a variable-length integer, then the body.
// Elements only know how to size, write and read their body; Write, Read and ReadFramed do the rest.
package element

import (
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// UnknownSize is the body size of elements written before their size was known.
// Only master elements can have it.
const UnknownSize = encio.UnknownSize

// IDs of the EBML global elements, which may appear in any master element.
const (
	VoidID  ID = 0xec
	CRC32ID ID = 0xbf
)

// ID is an EBML element ID, including its length marker.
type ID uint32

// Valid returns a wrapped encio.ErrInvalidEBMLID if id can't be encoded.
func (id ID) Valid() error {
	_, err := encio.IDSize(uint32(id))
	return err
}

// Size returns the number of bytes id is encoded in, or 0 if it is invalid.
func (id ID) Size() int {
	n, _ := encio.IDSize(uint32(id))
	return n
}

func (id ID) String() string {
	return fmt.Sprintf("%#x", uint32(id))
}

// Element is an EBML element.
//
// Elements are not thread safe.
//
// Elements are allowed to assume certain characteristics:
// 1. WriteBody is only called by Write, straight after the element's header.
// 1. The ReadBody method is only called through ReadFramed or ReadBody, straight after the element's header, with the size from that header.
//
// In order to keep the framing valid, Elements must
// 1. Always compute Size from their current content; never return a value cached before a mutation.
// 1. Write exactly Size() bytes in WriteBody.
// 1. Read exactly size bytes in ReadBody, even if the data is useless. Don't leave garbage in the stream for the next element.
type Element interface {
	// ID returns the element's ID.
	ID() ID

	// Size returns the size of the element's body.
	Size() uint64

	// WriteBody writes the element's body to w.
	// It returns the number of bytes written.
	WriteBody(w io.Writer) (int64, error)

	// ReadBody reads a body of size bytes from r, replacing the element's content.
	// It returns the number of bytes read.
	ReadBody(r io.Reader, size uint64) (int64, error)
}

// TotalSize returns the number of bytes el takes up when written, including its ID and size.
// It doesn't check that el can be written: an element too big to have its size written is counted with an 8 byte size.
// FramedSize reports that as an error instead.
func TotalSize(el Element) uint64 {
	size := el.Size()
	width, err := encio.VarintSize(size)
	if err != nil {
		width = encio.MaxVarintWidth
	}
	return uint64(el.ID().Size()+width) + size
}

// FramedSize is like TotalSize, but returns a wrapped encio.ErrVarIntTooBig if el's body is too big to have its size written,
// or encio.ErrInvalidElementID if its ID is invalid.
func FramedSize(el Element) (uint64, error) {
	if err := el.ID().Valid(); err != nil {
		return 0, encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%T: %v", el, err), 0)
	}

	size := el.Size()
	width, err := encio.VarintSize(size)
	if err != nil {
		return 0, encio.NewError(encio.ErrVarIntTooBig, fmt.Sprintf("%T %v has a %v byte body", el, el.ID(), size), 0)
	}
	return uint64(el.ID().Size()+width) + size, nil
}

// Write writes el, with its ID and size, to w.
// It returns the number of bytes written.
func Write(w io.Writer, el Element) (int64, error) {
	var head [encio.MaxIDWidth + encio.MaxVarintWidth]byte

	n, err := encio.EncodeID(head[:], uint32(el.ID()))
	if err != nil {
		return 0, encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%T has ID %v", el, el.ID()), 0)
	}

	size := el.Size()
	l, err := encio.EncodeVarint(head[n:], size, 0)
	if err != nil {
		return 0, err
	}
	n += l

	if err := encio.Write(head[:n], w); err != nil {
		return 0, err
	}

	body, err := el.WriteBody(w)
	total := int64(n) + body
	if err != nil {
		return total, err
	}

	if uint64(body) != size {
		return total, encio.NewError(
			encio.ErrBadBodySize,
			fmt.Sprintf("%T %v reported a size of %v but wrote %v bytes", el, el.ID(), size, body),
			0,
		)
	}

	return total, nil
}

// Read reads a whole element, ID included, from r into el.
// It returns the number of bytes read.
// If the ID read isn't el's, it returns a wrapped encio.ErrInvalidChildID.
func Read(r io.Reader, el Element) (int64, error) {
	var idc encio.ID
	id, n, err := idc.Decode(r)
	if err != nil {
		return int64(n), err
	}

	if ID(id) != el.ID() {
		return int64(n), encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("want %T %v but read %v", el, el.ID(), ID(id)), 0)
	}

	body, err := ReadFramed(r, el)
	return int64(n) + body, err
}

// ReadFramed reads the size and body of el from r.
// The caller must have already read the ID.
// It returns the number of bytes read.
func ReadFramed(r io.Reader, el Element) (int64, error) {
	var v encio.Varint
	size, n, err := v.Decode(r)
	if err != nil {
		return int64(n), encio.Truncated(err)
	}

	body, err := ReadBody(r, el, size)
	return int64(n) + body, err
}

// ReadBody reads a body of size bytes from r into el, checking that el read all of it.
// The caller must have already read the ID and size.
func ReadBody(r io.Reader, el Element, size uint64) (int64, error) {
	if size == UnknownSize {
		if _, ok := el.(*Master); !ok {
			return 0, encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("%T %v can't have an unknown size", el, el.ID()), 0)
		}
	}

	n, err := el.ReadBody(r, size)
	if err != nil {
		return n, err
	}

	if size != UnknownSize && uint64(n) != size {
		return n, encio.NewError(
			encio.ErrBadBodySize,
			fmt.Sprintf("%T %v has a %v byte body but read %v bytes", el, el.ID(), size, n),
			0,
		)
	}

	return n, nil
}

// SkipFramed reads the size of an element from r, then discards its body.
// The caller must have already read the ID.
func SkipFramed(r io.Reader) (int64, error) {
	var v encio.Varint
	size, n, err := v.Decode(r)
	if err != nil {
		return int64(n), encio.Truncated(err)
	}
	if size == UnknownSize {
		return int64(n), encio.NewError(encio.ErrBadBodySize, "can't skip an element of unknown size", 0)
	}
	if err := encio.Discard(r, size); err != nil {
		return int64(n), err
	}
	return int64(n) + int64(size), nil
}

// checkSize returns a wrapped encio.ErrBadBodySize if size is too big to buffer.
func checkSize(el Element, size uint64) error {
	if size > encio.TooBig {
		return encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("%T %v has a %v byte body, which is too big", el, el.ID(), size), 1)
	}
	return nil
}

type base struct {
	id ID
}

func newBase(id ID) (base, error) {
	if err := id.Valid(); err != nil {
		return base{}, encio.NewError(encio.ErrInvalidElementID, err.Error(), 1)
	}
	return base{id: id}, nil
}

// ID implements Element.
func (b *base) ID() ID { return b.id }

// SetID changes the element's ID.
// It returns a wrapped encio.ErrInvalidElementID if id isn't a valid EBML ID.
func (b *base) SetID(id ID) error {
	if err := id.Valid(); err != nil {
		return encio.NewError(encio.ErrInvalidElementID, err.Error(), 0)
	}
	b.id = id
	return nil
}
