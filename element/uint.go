package element

import (
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// NewUInt returns a new unsigned integer element.
func NewUInt(id ID, value uint64) (*UInt, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &UInt{
		base:  b,
		value: value,
	}, nil
}

// NewUIntDefault returns a new unsigned integer element with a default value.
func NewUIntDefault(id ID, value, def uint64) (*UInt, error) {
	e, err := NewUInt(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// UInt is an element holding a uint64.
// Its body is the minimal big-endian encoding of the value; zero has an empty body.
type UInt struct {
	base
	value  uint64
	def    uint64
	hasDef bool
	buff   encio.Int
}

// Value returns the element's value.
func (e *UInt) Value() uint64 { return e.value }

// SetValue sets the element's value.
func (e *UInt) SetValue(v uint64) { e.value = v }

// HasDefault reports whether the element has a default value.
func (e *UInt) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *UInt) Default() uint64 { return e.def }

// SetDefault sets the element's default value.
func (e *UInt) SetDefault(v uint64) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *UInt) RemoveDefault() {
	e.def = 0
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *UInt) IsDefault() bool { return e.hasDef && e.value == e.def }

// Size implements Element.
func (e *UInt) Size() uint64 { return uint64(encio.UintSize(e.value)) }

// WriteBody implements Element.
func (e *UInt) WriteBody(w io.Writer) (int64, error) {
	n, err := e.buff.EncodeUint(w, e.value)
	return int64(n), err
}

// ReadBody implements Element.
func (e *UInt) ReadBody(r io.Reader, size uint64) (int64, error) {
	if size > encio.MaxIntWidth {
		return 0, encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("unsigned integer %v has a %v byte body", e.id, size), 0)
	}

	v, err := e.buff.DecodeUint(r, int(size))
	if err != nil {
		return 0, err
	}

	e.value = v
	return int64(size), nil
}

func (e *UInt) String() string {
	return fmt.Sprintf("%v: %v", e.id, e.value)
}
