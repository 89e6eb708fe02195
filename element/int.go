package element

import (
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// NewInt returns a new signed integer element.
func NewInt(id ID, value int64) (*Int, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &Int{
		base:  b,
		value: value,
	}, nil
}

// NewIntDefault returns a new signed integer element with a default value.
func NewIntDefault(id ID, value, def int64) (*Int, error) {
	e, err := NewInt(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// Int is an element holding an int64.
// Its body is the minimal two's complement big-endian encoding of the value; zero has an empty body.
type Int struct {
	base
	value  int64
	def    int64
	hasDef bool
	buff   encio.Int
}

// Value returns the element's value.
func (e *Int) Value() int64 { return e.value }

// SetValue sets the element's value.
func (e *Int) SetValue(v int64) { e.value = v }

// HasDefault reports whether the element has a default value.
func (e *Int) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *Int) Default() int64 { return e.def }

// SetDefault sets the element's default value.
func (e *Int) SetDefault(v int64) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *Int) RemoveDefault() {
	e.def = 0
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *Int) IsDefault() bool { return e.hasDef && e.value == e.def }

// Size implements Element.
func (e *Int) Size() uint64 { return uint64(encio.IntSize(e.value)) }

// WriteBody implements Element.
func (e *Int) WriteBody(w io.Writer) (int64, error) {
	n, err := e.buff.EncodeInt(w, e.value)
	return int64(n), err
}

// ReadBody implements Element.
func (e *Int) ReadBody(r io.Reader, size uint64) (int64, error) {
	if size > encio.MaxIntWidth {
		return 0, encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("signed integer %v has a %v byte body", e.id, size), 0)
	}

	v, err := e.buff.DecodeInt(r, int(size))
	if err != nil {
		return 0, err
	}

	e.value = v
	return int64(size), nil
}

func (e *Int) String() string {
	return fmt.Sprintf("%v: %v", e.id, e.value)
}
