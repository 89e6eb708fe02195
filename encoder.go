package ebml

import (
	"fmt"
	"io"
	"sync"

	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/encio"
)

// NewEncoder returns a new Encoder writing to w.
// If w is an io.WriteSeeker and config doesn't disable seeking, the Encoder patches sizes in place,
// and if config.TrackOffsets is set, rewrites elements in place.
func NewEncoder(w io.Writer, config *Config) *Encoder {
	config = config.copyAndFill()
	e := &Encoder{
		w:      w,
		config: config,
	}

	if ws, ok := w.(io.WriteSeeker); ok && !config.DisableSeek {
		if start, err := ws.Seek(0, io.SeekCurrent); err == nil {
			e.seeker = ws
			e.start = start
		}
	}

	if e.seeker != nil && config.TrackOffsets {
		e.written = make(map[element.Element]span)
	}

	return e
}

// Encoder writes a stream of EBML elements.
//
// When tracking offsets, it remembers where each element it writes ends up, including the children of master elements,
// so they can later be rewritten in place. Elements are kept until they are forgotten.
// Offsets are counted from where the stream was when the Encoder was created.
type Encoder struct {
	w      io.Writer
	seeker io.WriteSeeker
	start  int64
	pos    int64
	config *Config
	mutex  sync.Mutex

	written map[element.Element]span // nil unless tracking offsets
	open    []openMaster

	idc encio.ID
	vc  encio.Varint
}

type span struct {
	offset int64
	size   uint64
}

type openMaster struct {
	id     element.ID
	offset int64
	body   int64
	width  int // of the reserved size; 0 if it was written as unknown
}

// Encode writes el to the stream.
// When tracking offsets, elements must be comparable, as they are used to look up where they were written.
func (e *Encoder) Encode(el element.Element) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.check(el); err != nil {
		return err
	}

	offset := e.pos
	n, err := element.Write(e.w, el)
	e.pos += n
	if err != nil {
		return err
	}

	e.record(el, offset)
	return nil
}

// Position returns the number of bytes written.
func (e *Encoder) Position() int64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.pos
}

// Offset returns where el was last written.
// It reports false if el wasn't written, or offsets aren't tracked.
func (e *Encoder) Offset(el element.Element) (int64, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	s, ok := e.written[el]
	return s.offset, ok
}

// Rewrite writes el again in the place it was last written.
// It must take up exactly the same number of bytes as it did then; otherwise encio.ErrSizeChanged is returned.
// Children of masters with a checksum can't be rewritten on their own.
func (e *Encoder) Rewrite(el element.Element) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.seeker == nil {
		return encio.NewError(encio.ErrNotSeekable, "can't rewrite elements", 0)
	}

	if e.written == nil {
		return encio.NewError(encio.ErrNotWritten, "offsets aren't tracked", 0)
	}

	s, ok := e.written[el]
	if !ok {
		return encio.NewError(encio.ErrNotWritten, fmt.Sprintf("%T %v", el, el.ID()), 0)
	}

	size, err := element.FramedSize(el)
	if err != nil {
		return err
	}
	if size != s.size {
		return encio.NewError(encio.ErrSizeChanged, fmt.Sprintf("%T %v was %v bytes, now %v", el, el.ID(), s.size, size), 0)
	}

	if err := e.check(el); err != nil {
		return err
	}

	if err := e.seek(s.offset); err != nil {
		return err
	}

	_, err = element.Write(e.w, el)
	if serr := e.seek(e.pos); err == nil {
		err = serr
	}
	if err != nil {
		return err
	}

	e.record(el, s.offset)
	return nil
}

// Begin starts a master element with the given ID, without knowing its size.
// Everything encoded until the matching End becomes its body.
//
// On a seekable stream, MaxSizeLength bytes are reserved for the size, which End fills in.
// Otherwise the master is written with an unknown size, which needs MaxSizeLength to be 8.
func (e *Encoder) Begin(id element.ID) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if w := id.Size(); w == 0 || w > e.config.MaxIDLength {
		return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%v with a maximum ID length of %v", id, e.config.MaxIDLength), 0)
	}

	if e.seeker == nil && e.config.MaxSizeLength < encio.MaxVarintWidth {
		return encio.NewError(encio.ErrNotSeekable, fmt.Sprintf("an unknown size needs 8 bytes, but the maximum size length is %v", e.config.MaxSizeLength), 0)
	}

	o := openMaster{id: id, offset: e.pos}

	n, err := e.idc.Encode(e.w, uint32(id))
	if err != nil {
		return err
	}
	e.pos += int64(n)

	if e.seeker != nil {
		o.width = e.config.MaxSizeLength
		n, err = e.vc.EncodeWidth(e.w, 0, o.width)
	} else {
		n, err = e.vc.EncodeUnknownSize(e.w)
	}
	if err != nil {
		return err
	}
	e.pos += int64(n)

	o.body = e.pos
	e.open = append(e.open, o)
	return nil
}

// End finishes the master element started by the last unmatched Begin.
// It panics if there is none.
func (e *Encoder) End() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if len(e.open) == 0 {
		panic("ebml: End called without a matching Begin")
	}

	o := e.open[len(e.open)-1]
	e.open = e.open[:len(e.open)-1]

	if o.width == 0 {
		return nil
	}

	var buff [encio.MaxVarintWidth]byte
	n, err := encio.EncodeVarint(buff[:], uint64(e.pos-o.body), o.width)
	if err != nil {
		return err
	}

	if err := e.seek(o.offset + int64(o.id.Size())); err != nil {
		return err
	}

	err = encio.Write(buff[:n], e.w)
	if serr := e.seek(e.pos); err == nil {
		err = serr
	}
	return err
}

// Depth returns the number of masters begun but not yet ended.
func (e *Encoder) Depth() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.open)
}

func (e *Encoder) seek(offset int64) error {
	if _, err := e.seeker.Seek(e.start+offset, io.SeekStart); err != nil {
		return encio.NewWriteError(err, fmt.Sprintf("seeking to %v", offset), 0)
	}
	return nil
}

// check makes sure el fits in the configured ID and size lengths.
func (e *Encoder) check(el element.Element) error {
	if w := el.ID().Size(); w == 0 || w > e.config.MaxIDLength {
		return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%T %v with a maximum ID length of %v", el, el.ID(), e.config.MaxIDLength), 0)
	}

	if _, err := element.FramedSize(el); err != nil {
		return err
	}
	if width, _ := encio.VarintSize(el.Size()); width > e.config.MaxSizeLength {
		return encio.NewError(encio.ErrVarIntTooBig, fmt.Sprintf("%T %v needs a %v byte size, but the maximum is %v", el, el.ID(), width, e.config.MaxSizeLength), 0)
	}

	if m, ok := el.(*element.Master); ok {
		for _, child := range m.Children() {
			if err := e.check(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Forget drops what the Encoder remembers about els and their children.
// Forgotten elements can't be rewritten.
func (e *Encoder) Forget(els ...element.Element) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.written == nil {
		return
	}
	for _, el := range els {
		e.forget(el)
	}
}

func (e *Encoder) forget(el element.Element) {
	delete(e.written, el)
	if m, ok := el.(*element.Master); ok {
		for _, c := range m.Children() {
			e.forget(c)
		}
	}
}

// Tracked returns the number of elements the Encoder remembers.
func (e *Encoder) Tracked() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.written)
}

// record notes where el and its children were written, if offsets are tracked.
func (e *Encoder) record(el element.Element, offset int64) {
	if e.written == nil {
		return
	}
	e.note(el, offset)
}

func (e *Encoder) note(el element.Element, offset int64) {
	size := el.Size()
	total := element.TotalSize(el)
	e.written[el] = span{offset: offset, size: total}

	m, ok := el.(*element.Master)
	if !ok || m.Checksum {
		return
	}

	child := offset + int64(total-size)
	for _, c := range m.Children() {
		e.note(c, child)
		child += int64(element.TotalSize(c))
	}
}
