package element

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// NewString returns a new string element.
func NewString(id ID, value string) (*String, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &String{
		base:  b,
		value: value,
	}, nil
}

// NewStringDefault returns a new string element with a default value.
func NewStringDefault(id ID, value, def string) (*String, error) {
	e, err := NewString(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// String is an element holding a string, used for both ASCII and UTF-8 EBML strings.
// Its body is the string's bytes followed by Padding() zero bytes.
//
// Reading splits the body at the first NUL; the rest of the body becomes padding.
type String struct {
	base
	value   string
	def     string
	hasDef  bool
	padding uint64
}

// Value returns the element's value.
func (e *String) Value() string { return e.value }

// SetValue sets the element's value.
func (e *String) SetValue(v string) { e.value = v }

// Len returns the length of the element's value in bytes.
func (e *String) Len() int { return len(e.value) }

// Append appends s to the element's value.
func (e *String) Append(s string) { e.value += s }

// Clear empties the element's value.
func (e *String) Clear() { e.value = "" }

// Padding returns the number of zero bytes written after the value.
func (e *String) Padding() uint64 { return e.padding }

// SetPadding sets the number of zero bytes written after the value.
func (e *String) SetPadding(n uint64) { e.padding = n }

// HasDefault reports whether the element has a default value.
func (e *String) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *String) Default() string { return e.def }

// SetDefault sets the element's default value.
func (e *String) SetDefault(v string) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *String) RemoveDefault() {
	e.def = ""
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *String) IsDefault() bool { return e.hasDef && e.value == e.def }

// Size implements Element.
func (e *String) Size() uint64 { return uint64(len(e.value)) + e.padding }

// WriteBody implements Element.
func (e *String) WriteBody(w io.Writer) (int64, error) {
	if err := encio.Write([]byte(e.value), w); err != nil {
		return 0, err
	}
	if err := encio.Zeros(w, e.padding); err != nil {
		return int64(len(e.value)), err
	}
	return int64(e.Size()), nil
}

// ReadBody implements Element.
func (e *String) ReadBody(r io.Reader, size uint64) (int64, error) {
	if err := checkSize(e, size); err != nil {
		return 0, err
	}

	buff := make([]byte, size)
	if err := encio.Read(buff, r); err != nil {
		return 0, encio.Truncated(err)
	}

	end := bytes.IndexByte(buff, 0)
	if end < 0 {
		end = len(buff)
	}

	for _, b := range buff[end:] {
		if b != 0 {
			fmt.Fprintf(encio.Warnings, "ebml: string %v has non-zero bytes after its terminator; discarding them\n", e.id)
			break
		}
	}

	e.value = string(buff[:end])
	e.padding = size - uint64(end)
	return int64(size), nil
}

func (e *String) String() string {
	return fmt.Sprintf("%v: %q", e.id, e.value)
}
