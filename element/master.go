package element

import (
	"errors"
	"fmt"
	"io"

	"github.com/stewi1014/ebml/encio"
)

// ChildSpec describes a kind of child a Master accepts.
type ChildSpec struct {
	ID ID

	// New returns the element a child with this ID is read into.
	New func() Element

	// Required children must be present when a body has been read.
	Required bool

	// Multiple children may appear more than once.
	Multiple bool
}

// NewMaster returns a new master element accepting the given children.
// A master with no specs and no Fallback accepts any child, but can't read them.
func NewMaster(id ID, specs ...ChildSpec) (*Master, error) {
	b, err := newBase(id)
	if err != nil {
		return nil, err
	}

	for _, spec := range specs {
		if err := spec.ID.Valid(); err != nil {
			return nil, encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("child spec of %v: %v", id, err), 0)
		}
		if spec.New == nil {
			panic(fmt.Sprintf("element: child spec %v of %v has no New function", spec.ID, id))
		}
	}

	return &Master{
		base:  b,
		specs: specs,
	}, nil
}

// Master is an element whose body is a sequence of child elements.
//
// Void children are accepted anywhere, and skipped when read.
// A CRC-32 child is only accepted first, and is checked against the rest of the body when read.
type Master struct {
	base
	specs    []ChildSpec
	children []Element

	// Fallback returns elements for children that aren't in the master's specs.
	Fallback func(id ID) (Element, bool)

	// SkipUnknown makes ReadBody discard children it has no element for, instead of failing.
	SkipUnknown bool

	// Ends reports whether an ID the master has no child for ends a body of unknown size.
	// If nil, every such ID does.
	Ends func(id ID) bool

	// Checksum makes WriteBody start the body with a CRC-32 of the rest of it.
	// It is set by ReadBody if the body read had one.
	Checksum bool
}

func (m *Master) spec(id ID) *ChildSpec {
	for i := range m.specs {
		if m.specs[i].ID == id {
			return &m.specs[i]
		}
	}
	return nil
}

func (m *Master) open() bool {
	return len(m.specs) == 0 && m.Fallback == nil
}

func (m *Master) newChild(id ID) (Element, *ChildSpec, bool) {
	if spec := m.spec(id); spec != nil {
		return spec.New(), spec, true
	}
	if m.Fallback != nil {
		el, ok := m.Fallback(id)
		return el, nil, ok
	}
	return nil, nil, false
}

// Accepts reports whether the master can hold a child with the given ID.
func (m *Master) Accepts(id ID) bool {
	if id == VoidID || m.open() || m.spec(id) != nil {
		return true
	}
	if m.Fallback != nil {
		_, ok := m.Fallback(id)
		return ok
	}
	return false
}

// Append adds children to the end of the master.
// It returns a wrapped encio.ErrInvalidChildID if a child isn't accepted, or would be a second instance of a child that can't repeat.
func (m *Master) Append(children ...Element) error {
	for _, child := range children {
		id := child.ID()
		if !m.Accepts(id) {
			return encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v doesn't accept %v", m.id, id), 0)
		}
		if spec := m.spec(id); spec != nil && !spec.Multiple && m.Child(id) != nil {
			return encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v can only hold one %v", m.id, id), 0)
		}
		m.children = append(m.children, child)
	}
	return nil
}

// Children returns the master's children.
func (m *Master) Children() []Element { return m.children }

// Child returns the first child with the given ID, or nil.
func (m *Master) Child(id ID) Element {
	for _, child := range m.children {
		if child.ID() == id {
			return child
		}
	}
	return nil
}

// ChildrenOf returns all children with the given ID.
func (m *Master) ChildrenOf(id ID) []Element {
	var children []Element
	for _, child := range m.children {
		if child.ID() == id {
			children = append(children, child)
		}
	}
	return children
}

// Remove removes all children with the given ID, returning how many were removed.
func (m *Master) Remove(id ID) int {
	kept := m.children[:0]
	for _, child := range m.children {
		if child.ID() != id {
			kept = append(kept, child)
		}
	}
	removed := len(m.children) - len(kept)
	for i := len(kept); i < len(m.children); i++ {
		m.children[i] = nil
	}
	m.children = kept
	return removed
}

// Clear removes all children.
func (m *Master) Clear() { m.children = nil }

// checksumSize is the total size of a CRC-32 element.
const checksumSize = 2 + encio.ChecksumSize

// Size implements Element.
func (m *Master) Size() uint64 {
	var size uint64
	for _, child := range m.children {
		size += TotalSize(child)
	}
	if m.Checksum {
		size += checksumSize
	}
	return size
}

// WriteBody implements Element.
func (m *Master) WriteBody(w io.Writer) (int64, error) {
	if !m.Checksum {
		return m.writeChildren(w)
	}

	var body encio.Buffer
	if _, err := m.writeChildren(&body); err != nil {
		return 0, err
	}

	var head [checksumSize]byte
	head[0] = byte(CRC32ID)
	head[1] = 0x80 | encio.ChecksumSize
	encio.EncodeChecksum(head[2:], encio.Checksum(body.Bytes()))

	if err := encio.Write(head[:], w); err != nil {
		return 0, err
	}
	if err := encio.Write(body.Bytes(), w); err != nil {
		return checksumSize, err
	}
	return checksumSize + int64(len(body.Bytes())), nil
}

func (m *Master) writeChildren(w io.Writer) (int64, error) {
	var total int64
	for _, child := range m.children {
		n, err := Write(w, child)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadBody implements Element.
//
// If size is UnknownSize, the body ends where r ends cleanly between two children,
// or at the first ID that isn't a child of the master and that Ends reports as ending it.
// That ID is given back to r, which must be an encio.Unreader or an io.Seeker.
func (m *Master) ReadBody(r io.Reader, size uint64) (int64, error) {
	m.children = nil
	m.Checksum = false

	counter := &encio.CountingReader{R: r}
	var body io.Reader = counter
	if size != UnknownSize {
		body = io.LimitReader(counter, int64(size))
	}

	// Children of unknown size give the ID that ends them back to src.
	src := &encio.PushbackReader{R: body}
	read := func() int64 { return counter.N - int64(src.Buffered()) }

	var (
		idc  encio.ID
		crc  *encio.ChecksumReader
		want uint32
	)

	for size == UnknownSize || uint64(read()) < size {
		start := read()
		raw, n, err := idc.Decode(src)
		if err != nil {
			if size == UnknownSize && read() == start && errors.Is(err, io.EOF) {
				break
			}
			return read(), m.overrun(size, read(), encio.Truncated(err))
		}

		id := ID(raw)
		switch {
		case id == CRC32ID && start == 0:
			sum := &Binary{base: base{id: CRC32ID}}
			if _, err := ReadFramed(src, sum); err != nil {
				return read(), m.overrun(size, read(), err)
			}
			if sum.Len() != encio.ChecksumSize {
				return read(), encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("CRC-32 in %v has a %v byte body", m.id, sum.Len()), 0)
			}
			want = encio.DecodeChecksum(sum.Value())
			crc = encio.NewChecksumReader(src.R)
			src.R = crc
			m.Checksum = true
			continue

		case id == VoidID:
			if _, err := ReadFramed(src, new(Void)); err != nil {
				return read(), m.overrun(size, read(), err)
			}
			continue
		}

		child, spec, ok := m.newChild(id)
		if !ok && size == UnknownSize && (m.Ends == nil || m.Ends(id)) {
			if crc != nil {
				crc.Unhash(n)
			}
			if err := m.giveBack(r, id); err != nil {
				return read(), err
			}
			counter.N -= int64(n)
			break
		}

		if !ok {
			if !m.SkipUnknown {
				return read(), encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v doesn't accept %v", m.id, id), 0)
			}
			fmt.Fprintf(encio.Warnings, "ebml: skipping unknown child %v of %v\n", id, m.id)
			if _, err := SkipFramed(src); err != nil {
				return read(), m.overrun(size, read(), err)
			}
			continue
		}

		if spec != nil && !spec.Multiple && m.Child(id) != nil {
			return read(), encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v can only hold one %v", m.id, id), 0)
		}

		if _, err := ReadFramed(src, child); err != nil {
			return read(), m.overrun(size, read(), err)
		}
		m.children = append(m.children, child)
	}

	if crc != nil {
		if err := crc.Verify(want); err != nil {
			return read(), err
		}
	}

	for _, spec := range m.specs {
		if spec.Required && m.Child(spec.ID) == nil {
			return read(), encio.NewError(encio.ErrMissingChild, fmt.Sprintf("%v has no %v", m.id, spec.ID), 0)
		}
	}

	return read(), nil
}

// giveBack returns the ID that ended a body of unknown size to r, to be read by the master's parent.
func (m *Master) giveBack(r io.Reader, id ID) error {
	var buff [encio.MaxIDWidth]byte
	n, err := encio.EncodeID(buff[:], uint32(id))
	if err != nil {
		return err
	}

	switch r := r.(type) {
	case encio.Unreader:
		r.Unread(buff[:n])
		return nil
	case io.Seeker:
		if _, err := r.Seek(-int64(n), io.SeekCurrent); err != nil {
			return encio.NewReadError(err, fmt.Sprintf("giving back %v after %v", id, m.id), 0)
		}
		return nil
	default:
		return encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v ends at %v, but %T can't take it back", m.id, id, r), 0)
	}
}

// overrun replaces a short read with encio.ErrBadBodySize if it happened because a child ran past the end of the master's body.
func (m *Master) overrun(size uint64, read int64, err error) error {
	if size != UnknownSize && uint64(read) == size && errors.Is(err, io.ErrUnexpectedEOF) {
		return encio.NewError(encio.ErrBadBodySize, fmt.Sprintf("a child of %v runs past its %v byte body", m.id, size), 1)
	}
	return err
}
