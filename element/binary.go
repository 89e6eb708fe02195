package element

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// NewBinary returns a new binary element.
// The element holds value itself, not a copy.
func NewBinary(id ID, value []byte) (*Binary, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &Binary{
		base:  b,
		value: value,
	}, nil
}

// NewBinaryDefault returns a new binary element with a default value.
func NewBinaryDefault(id ID, value, def []byte) (*Binary, error) {
	e, err := NewBinary(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// NewUID returns a binary element holding 16 random bytes,
// as used for segment, track and attachment UIDs.
func NewUID(id ID) (*Binary, error) {
	uid := encio.NewUID()
	return NewBinary(id, uid[:])
}

// Binary is an element holding raw bytes, written as they are.
type Binary struct {
	base
	value  []byte
	def    []byte
	hasDef bool
}

// Value returns the element's value.
func (e *Binary) Value() []byte { return e.value }

// SetValue sets the element's value.
func (e *Binary) SetValue(v []byte) { e.value = v }

// Len returns the length of the element's value.
func (e *Binary) Len() int { return len(e.value) }

// Append appends b to the element's value.
func (e *Binary) Append(b ...byte) { e.value = append(e.value, b...) }

// Clear empties the element's value.
func (e *Binary) Clear() { e.value = e.value[:0] }

// HasDefault reports whether the element has a default value.
func (e *Binary) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *Binary) Default() []byte { return e.def }

// SetDefault sets the element's default value.
func (e *Binary) SetDefault(v []byte) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *Binary) RemoveDefault() {
	e.def = nil
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *Binary) IsDefault() bool { return e.hasDef && bytes.Equal(e.value, e.def) }

// Size implements Element.
func (e *Binary) Size() uint64 { return uint64(len(e.value)) }

// WriteBody implements Element.
func (e *Binary) WriteBody(w io.Writer) (int64, error) {
	if err := encio.Write(e.value, w); err != nil {
		return 0, err
	}
	return int64(len(e.value)), nil
}

// ReadBody implements Element.
func (e *Binary) ReadBody(r io.Reader, size uint64) (int64, error) {
	if err := checkSize(e, size); err != nil {
		return 0, err
	}

	buff := make([]byte, size)
	if err := encio.Read(buff, r); err != nil {
		return 0, encio.Truncated(err)
	}

	e.value = buff
	return int64(size), nil
}

func (e *Binary) String() string {
	if len(e.value) > 16 {
		return fmt.Sprintf("%v: [%v bytes]", e.id, len(e.value))
	}
	return fmt.Sprintf("%v: %x", e.id, e.value)
}

// NewVoid returns a Void element with a body of size zero bytes.
// Void elements reserve space, and are skipped by readers.
func NewVoid(size uint64) *Void {
	return &Void{size: size}
}

// Void is the EBML global element used to reserve or blank out space.
type Void struct {
	size uint64
}

// ID implements Element.
func (e *Void) ID() ID { return VoidID }

// Size implements Element.
func (e *Void) Size() uint64 { return e.size }

// SetSize sets the size of the element's body.
func (e *Void) SetSize(size uint64) { e.size = size }

// WriteBody implements Element.
func (e *Void) WriteBody(w io.Writer) (int64, error) {
	if err := encio.Zeros(w, e.size); err != nil {
		return 0, err
	}
	return int64(e.size), nil
}

// ReadBody implements Element.
// The body is discarded.
func (e *Void) ReadBody(r io.Reader, size uint64) (int64, error) {
	if err := encio.Discard(r, size); err != nil {
		return 0, err
	}
	e.size = size
	return int64(size), nil
}
