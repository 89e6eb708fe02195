package ebml

import (
	"fmt"
	"io"

	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/schema"
)

// DefaultDocType is the document type of a Header when none is given.
const DefaultDocType = "matroska"

// NewHeader returns a header for the given document type and versions, with every other field set to its default.
func NewHeader(docType string, version, readVersion uint64) *Header {
	return &Header{
		Version:            1,
		ReadVersion:        1,
		MaxIDLength:        4,
		MaxSizeLength:      8,
		DocType:            docType,
		DocTypeVersion:     version,
		DocTypeReadVersion: readVersion,
	}
}

// Header is the EBML header that starts every EBML document.
// It is an element; fields equal to their default are left out when written, except DocType.
type Header struct {
	Version            uint64
	ReadVersion        uint64
	MaxIDLength        uint64
	MaxSizeLength      uint64
	DocType            string
	DocTypeVersion     uint64
	DocTypeReadVersion uint64
}

type headerField struct {
	id    element.ID
	def   uint64
	value func(h *Header) *uint64
}

// In the order they're written; DocType goes between the EBML and document fields.
var (
	ebmlFields = []headerField{
		{schema.EBMLVersionID, 1, func(h *Header) *uint64 { return &h.Version }},
		{schema.EBMLReadVersionID, 1, func(h *Header) *uint64 { return &h.ReadVersion }},
		{schema.EBMLMaxIDLengthID, 4, func(h *Header) *uint64 { return &h.MaxIDLength }},
		{schema.EBMLMaxSizeLengthID, 8, func(h *Header) *uint64 { return &h.MaxSizeLength }},
	}
	docFields = []headerField{
		{schema.DocTypeVersionID, 1, func(h *Header) *uint64 { return &h.DocTypeVersion }},
		{schema.DocTypeReadVersionID, 1, func(h *Header) *uint64 { return &h.DocTypeReadVersion }},
	}
)

func (f headerField) spec() element.ChildSpec {
	return element.ChildSpec{
		ID: f.id,
		New: func() element.Element {
			el, _ := element.NewUIntDefault(f.id, f.def, f.def)
			return el
		},
	}
}

func newDocType(value string) element.Element {
	el, _ := element.NewStringDefault(schema.DocTypeID, value, DefaultDocType)
	return el
}

func headerMaster() *element.Master {
	var specs []element.ChildSpec
	for _, f := range ebmlFields {
		specs = append(specs, f.spec())
	}
	specs = append(specs, element.ChildSpec{
		ID:  schema.DocTypeID,
		New: func() element.Element { return newDocType(DefaultDocType) },
	})
	for _, f := range docFields {
		specs = append(specs, f.spec())
	}

	m, err := element.NewMaster(schema.EBMLID, specs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Element returns the header as a master element.
func (h *Header) Element() *element.Master {
	m := headerMaster()

	add := func(fields []headerField) {
		for _, f := range fields {
			if v := *f.value(h); v != f.def {
				el, _ := element.NewUIntDefault(f.id, v, f.def)
				if err := m.Append(el); err != nil {
					panic(err)
				}
			}
		}
	}

	add(ebmlFields)
	if err := m.Append(newDocType(h.DocType)); err != nil {
		panic(err)
	}
	add(docFields)

	return m
}

// ID implements element.Element.
func (h *Header) ID() element.ID { return schema.EBMLID }

// Size implements element.Element.
func (h *Header) Size() uint64 { return h.Element().Size() }

// WriteBody implements element.Element.
func (h *Header) WriteBody(w io.Writer) (int64, error) {
	return h.Element().WriteBody(w)
}

// ReadBody implements element.Element.
// Missing fields take their defaults, and unknown children are skipped.
func (h *Header) ReadBody(r io.Reader, size uint64) (int64, error) {
	m := headerMaster()
	m.SkipUnknown = true

	n, err := m.ReadBody(r, size)
	if err != nil {
		return n, err
	}

	for _, fields := range [][]headerField{ebmlFields, docFields} {
		for _, f := range fields {
			*f.value(h) = f.def
			if el, ok := m.Child(f.id).(*element.UInt); ok {
				*f.value(h) = el.Value()
			}
		}
	}

	h.DocType = DefaultDocType
	if el, ok := m.Child(schema.DocTypeID).(*element.String); ok {
		h.DocType = el.Value()
	}

	return n, nil
}

func (h *Header) String() string {
	return fmt.Sprintf("EBML v%v (read v%v) %v v%v (read v%v)", h.Version, h.ReadVersion, h.DocType, h.DocTypeVersion, h.DocTypeReadVersion)
}
