package ebml

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/encio"
)

// NewDecoder returns a new Decoder reading from r.
func NewDecoder(r io.Reader, config *Config) *Decoder {
	d := &Decoder{
		r:      &encio.CountingReader{R: r},
		config: config.copyAndFill(),
	}
	d.pb = &encio.PushbackReader{R: d.r}

	if s, ok := r.(io.Seeker); ok {
		if start, err := s.Seek(0, io.SeekCurrent); err == nil {
			d.seeker = s
			d.start = start
		}
	}

	return d
}

// Decoder reads a stream of EBML elements.
//
// Next reads element headers one at a time. After a master's header, the next call to Next reads its first child;
// DecodeBody and Skip consume the body instead.
// Offsets are counted from where the stream was when the Decoder was created.
type Decoder struct {
	r      *encio.CountingReader
	pb     *encio.PushbackReader
	seeker io.Seeker
	start  int64
	config *Config
	mutex  sync.Mutex

	idc encio.ID
	vc  encio.Varint
}

// Frame is the header of an element.
type Frame struct {
	ID element.ID

	// Size is the size of the body, which may be element.UnknownSize.
	Size uint64

	// Offset is where the element starts.
	Offset int64

	// HeaderSize is the number of bytes taken by the ID and size.
	HeaderSize int
}

// Body returns where the element's body starts.
func (f Frame) Body() int64 { return f.Offset + int64(f.HeaderSize) }

// Unknown reports whether the element's size is unknown.
func (f Frame) Unknown() bool { return f.Size == element.UnknownSize }

func (f Frame) String() string {
	if f.Unknown() {
		return fmt.Sprintf("%v at %v, unknown size", f.ID, f.Offset)
	}
	return fmt.Sprintf("%v at %v, %v bytes", f.ID, f.Offset, f.Size)
}

// Next reads the next element header.
// It returns io.EOF, unwrapped, if the stream ends cleanly before it.
func (d *Decoder) Next() (Frame, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.next()
}

func (d *Decoder) next() (Frame, error) {
	f := Frame{Offset: d.pos()}

	id, n, err := d.idc.Decode(d.pb)
	if err != nil {
		if d.pos() == f.Offset && errors.Is(err, io.EOF) {
			return f, io.EOF
		}
		return f, err
	}
	if n > d.config.MaxIDLength {
		return f, encio.NewError(encio.ErrInvalidEBMLID, fmt.Sprintf("%#x is %v bytes, but the maximum ID length is %v", id, n, d.config.MaxIDLength), 0)
	}

	size, l, err := d.vc.Decode(d.pb)
	if err != nil {
		return f, encio.Truncated(err)
	}
	if l > d.config.MaxSizeLength && size != element.UnknownSize {
		return f, encio.NewError(encio.ErrInvalidVarInt, fmt.Sprintf("size of %#x is %v bytes, but the maximum size length is %v", id, l, d.config.MaxSizeLength), 0)
	}

	f.ID = element.ID(id)
	f.Size = size
	f.HeaderSize = n + l
	return f, nil
}

// DecodeBody reads the body of f into el.
// f must be the frame last returned by Next, with nothing read since; otherwise DecodeBody panics.
func (d *Decoder) DecodeBody(f Frame, el element.Element) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.mustBeAt(f)
	if el.ID() != f.ID {
		return encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("want %T %v but read %v", el, el.ID(), f.ID), 0)
	}

	_, err := element.ReadBody(d.pb, el, f.Size)
	return err
}

// Decode reads the next element into el.
// It returns a wrapped encio.ErrInvalidChildID, leaving the body unread, if the element read isn't el's.
func (d *Decoder) Decode(el element.Element) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	f, err := d.next()
	if err != nil {
		return err
	}

	if el.ID() != f.ID {
		return encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("want %T %v but read %v", el, el.ID(), f.ID), 0)
	}

	_, err = element.ReadBody(d.pb, el, f.Size)
	return err
}

// DecodeAny reads the next element, whatever it is, using the configured schema.
// If Config.SkipUnknown is set, elements that aren't in the schema are skipped, both at the top level and as children.
func (d *Decoder) DecodeAny() (element.Element, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}

		var el element.Element
		if d.config.SkipUnknown {
			el, err = d.config.Schema.NewLenient(f.ID)
		} else {
			el, err = d.config.Schema.New(f.ID)
		}

		if err != nil {
			if d.config.SkipUnknown && errors.Is(err, encio.ErrInvalidChildID) {
				fmt.Fprintf(encio.Warnings, "ebml: skipping unknown element %v\n", f)
				if err := d.skip(f); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		if _, err := element.ReadBody(d.pb, el, f.Size); err != nil {
			return nil, err
		}
		return el, nil
	}
}

// DecodeHeader reads an EBML header, and adopts its maximum ID and size lengths.
func (d *Decoder) DecodeHeader() (*Header, error) {
	h := new(Header)
	if err := d.Decode(h); err != nil {
		return nil, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if h.MaxIDLength > 0 && h.MaxIDLength <= encio.MaxIDWidth {
		d.config.MaxIDLength = int(h.MaxIDLength)
	}
	if h.MaxSizeLength > 0 && h.MaxSizeLength <= encio.MaxVarintWidth {
		d.config.MaxSizeLength = int(h.MaxSizeLength)
	}
	return h, nil
}

// Skip discards the body of f.
// f must be the frame last returned by Next, with nothing read since; otherwise Skip panics.
// Elements of unknown size can't be skipped.
func (d *Decoder) Skip(f Frame) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.mustBeAt(f)
	return d.skip(f)
}

func (d *Decoder) skip(f Frame) error {
	if f.Unknown() {
		return encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("can't skip %v", f), 0)
	}
	return encio.Discard(d.pb, f.Size)
}

// Position returns the number of bytes read.
func (d *Decoder) Position() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pos()
}

func (d *Decoder) pos() int64 {
	return d.r.N - int64(d.pb.Buffered())
}

// Seek moves the decoder to offset, which should be the start of an element.
// It returns a wrapped encio.ErrNotSeekable if the stream can't seek.
func (d *Decoder) Seek(offset int64) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.seeker == nil {
		return encio.NewError(encio.ErrNotSeekable, fmt.Sprintf("can't seek to %v", offset), 0)
	}

	if _, err := d.seeker.Seek(d.start+offset, io.SeekStart); err != nil {
		return encio.NewReadError(err, fmt.Sprintf("seeking to %v", offset), 0)
	}
	d.r.N = offset
	d.pb.Reset()
	return nil
}

func (d *Decoder) mustBeAt(f Frame) {
	if d.pos() != f.Body() {
		panic(fmt.Sprintf("ebml: frame %v isn't the last one read; the decoder is at %v", f, d.pos()))
	}
}
