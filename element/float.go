package element

// Float & Date elements

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/stewi1014/ebml/encio"
)

// Precision is the width a Float is written in.
type Precision int

// Float precisions.
const (
	Single Precision = 4
	Double Precision = 8
)

func (p Precision) String() string {
	switch p {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// NewFloat returns a new double precision float element.
func NewFloat(id ID, value float64) (*Float, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &Float{
		base:      b,
		value:     value,
		precision: Double,
	}, nil
}

// NewFloatDefault returns a new double precision float element with a default value.
func NewFloatDefault(id ID, value, def float64) (*Float, error) {
	e, err := NewFloat(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// Float is an element holding a float64.
// Its body is a big-endian IEEE-754 float of 4 or 8 bytes, depending on its precision.
//
// Writing in single precision narrows the written value, but not the one held.
type Float struct {
	base
	value     float64
	def       float64
	hasDef    bool
	precision Precision
	buff      [8]byte
}

// Value returns the element's value.
func (e *Float) Value() float64 { return e.value }

// SetValue sets the element's value.
func (e *Float) SetValue(v float64) { e.value = v }

// Precision returns the precision the element is written in.
func (e *Float) Precision() Precision { return e.precision }

// SetPrecision sets the precision the element is written in.
// It panics if p isn't Single or Double.
func (e *Float) SetPrecision(p Precision) {
	if p != Single && p != Double {
		panic(fmt.Sprintf("element: invalid float precision %v", p))
	}
	e.precision = p
}

// HasDefault reports whether the element has a default value.
func (e *Float) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *Float) Default() float64 { return e.def }

// SetDefault sets the element's default value.
func (e *Float) SetDefault(v float64) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *Float) RemoveDefault() {
	e.def = 0
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *Float) IsDefault() bool { return e.hasDef && e.value == e.def }

// Size implements Element.
func (e *Float) Size() uint64 { return uint64(e.precision) }

// WriteBody implements Element.
func (e *Float) WriteBody(w io.Writer) (int64, error) {
	if e.precision == Single {
		encio.EncodeUint32(e.buff[:], math.Float32bits(float32(e.value)))
	} else {
		encio.EncodeUint64(e.buff[:], math.Float64bits(e.value))
	}

	if err := encio.Write(e.buff[:e.precision], w); err != nil {
		return 0, err
	}
	return int64(e.precision), nil
}

// ReadBody implements Element.
// The precision is taken from the body's size; an empty body reads as a double precision 0.
func (e *Float) ReadBody(r io.Reader, size uint64) (int64, error) {
	switch size {
	case 0:
		e.value = 0
		e.precision = Double
		return 0, nil
	case uint64(Single), uint64(Double):
	default:
		return 0, encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("float %v has a %v byte body", e.id, size), 0)
	}

	if err := encio.Read(e.buff[:size], r); err != nil {
		return 0, encio.Truncated(err)
	}

	if size == uint64(Single) {
		e.value = float64(math.Float32frombits(encio.DecodeUint32(e.buff[:])))
		e.precision = Single
	} else {
		e.value = math.Float64frombits(encio.DecodeUint64(e.buff[:]))
		e.precision = Double
	}
	return int64(size), nil
}

func (e *Float) String() string {
	return fmt.Sprintf("%v: %v", e.id, e.value)
}

// Epoch is the point in time Date elements count from.
var Epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewDate returns a new date element, holding nanoseconds since Epoch.
func NewDate(id ID, value int64) (*Date, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}
	return &Date{
		base:  b,
		value: value,
	}, nil
}

// NewDateDefault returns a new date element with a default value.
func NewDateDefault(id ID, value, def int64) (*Date, error) {
	e, err := NewDate(id, value)
	if err != nil {
		return nil, err
	}
	e.SetDefault(def)
	return e, nil
}

// DateSize is the size of a written Date's body.
const DateSize = 8

// Date is an element holding a point in time, as signed nanoseconds since Epoch.
// It is always written in 8 bytes; an empty body reads as Epoch.
type Date struct {
	base
	value  int64
	def    int64
	hasDef bool
	buff   [DateSize]byte
}

// Value returns the element's value, in nanoseconds since Epoch.
func (e *Date) Value() int64 { return e.value }

// SetValue sets the element's value, in nanoseconds since Epoch.
func (e *Date) SetValue(v int64) { e.value = v }

// Time returns the element's value as a time.Time.
func (e *Date) Time() time.Time { return Epoch.Add(time.Duration(e.value)) }

// SetTime sets the element's value from a time.Time.
// Times more than ~292 years from Epoch are clamped.
func (e *Date) SetTime(t time.Time) { e.value = int64(t.Sub(Epoch)) }

// HasDefault reports whether the element has a default value.
func (e *Date) HasDefault() bool { return e.hasDef }

// Default returns the element's default value, if it has one.
func (e *Date) Default() int64 { return e.def }

// SetDefault sets the element's default value.
func (e *Date) SetDefault(v int64) {
	e.def = v
	e.hasDef = true
}

// RemoveDefault removes the element's default value.
func (e *Date) RemoveDefault() {
	e.def = 0
	e.hasDef = false
}

// IsDefault reports whether the element has a default value and is set to it.
func (e *Date) IsDefault() bool { return e.hasDef && e.value == e.def }

// Size implements Element.
func (e *Date) Size() uint64 { return DateSize }

// WriteBody implements Element.
func (e *Date) WriteBody(w io.Writer) (int64, error) {
	encio.EncodeUint64(e.buff[:], uint64(e.value))
	if err := encio.Write(e.buff[:], w); err != nil {
		return 0, err
	}
	return DateSize, nil
}

// ReadBody implements Element.
func (e *Date) ReadBody(r io.Reader, size uint64) (int64, error) {
	switch size {
	case 0:
		e.value = 0
		return 0, nil
	case DateSize:
	default:
		return 0, encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("date %v has a %v byte body", e.id, size), 0)
	}

	if err := encio.Read(e.buff[:], r); err != nil {
		return 0, encio.Truncated(err)
	}

	e.value = int64(encio.DecodeUint64(e.buff[:]))
	return DateSize, nil
}

func (e *Date) String() string {
	return fmt.Sprintf("%v: %v", e.id, e.Time().Format(time.RFC3339Nano))
}
