// Package schema maps EBML element IDs to the kind of value they hold,
// so documents can be read without knowing their structure up front.
package schema

import (
	"fmt"

	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/encio"
)

// Kind is the type of value an element holds.
type Kind uint8

// Element kinds.
const (
	Unknown Kind = iota
	Master
	Uint
	Int
	String
	Unicode
	Binary
	Float
	Date
)

var kindNames = [...]string{
	Unknown: "unknown",
	Master:  "master",
	Uint:    "uinteger",
	Int:     "integer",
	String:  "string",
	Unicode: "utf-8",
	Binary:  "binary",
	Float:   "float",
	Date:    "date",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Register describes a single element.
type Register struct {
	ID   element.ID
	Kind Kind
	Name string

	// Parent is the ID of the master the element is a child of, or zero for top level elements.
	Parent element.ID
}

func (r Register) String() string {
	return fmt.Sprintf("%v (%v %v)", r.Name, r.ID, r.Kind)
}

// New returns a new Schema holding regs.
func New(regs ...Register) (*Schema, error) {
	s := &Schema{
		ids:   make(map[element.ID]Register, len(regs)),
		names: make(map[string]Register, len(regs)),
	}
	return s, s.Add(regs...)
}

// Schema resolves element IDs to Registers.
// It is safe for concurrent lookups once it is no longer being added to.
type Schema struct {
	ids   map[element.ID]Register
	names map[string]Register
}

// Add adds regs to the schema.
// It returns a wrapped encio.ErrInvalidElementID if a register has an invalid ID, or an ID or name that's already taken.
func (s *Schema) Add(regs ...Register) error {
	for _, r := range regs {
		if err := r.ID.Valid(); err != nil {
			return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("register %v: %v", r.Name, err), 0)
		}
		if r.Parent != 0 {
			if err := r.Parent.Valid(); err != nil {
				return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("parent of register %v: %v", r.Name, err), 0)
			}
		}
		if r.Kind == Unknown || int(r.Kind) >= len(kindNames) {
			return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("register %v has kind %v", r.Name, r.Kind), 0)
		}
		if prev, ok := s.ids[r.ID]; ok {
			return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%v and %v share an ID", prev, r), 0)
		}
		if prev, ok := s.names[r.Name]; ok {
			return encio.NewError(encio.ErrInvalidElementID, fmt.Sprintf("%v and %v share a name", prev, r), 0)
		}
		s.ids[r.ID] = r
		s.names[r.Name] = r
	}
	return nil
}

// Lookup returns the register for id.
func (s *Schema) Lookup(id element.ID) (Register, bool) {
	r, ok := s.ids[id]
	return r, ok
}

// ByName returns the register with the given name.
func (s *Schema) ByName(name string) (Register, bool) {
	r, ok := s.names[name]
	return r, ok
}

// ChildOf reports whether child is in the schema as a child of parent.
func (s *Schema) ChildOf(child, parent element.ID) bool {
	r, ok := s.ids[child]
	return ok && r.Parent == parent
}

// Len returns the number of registers in the schema.
func (s *Schema) Len() int { return len(s.ids) }

// New returns an empty element for id.
// Master elements resolve their children through the schema, taking only the registers whose Parent they are.
// When their size is unknown, they end at the first other ID in the schema.
// It returns a wrapped encio.ErrInvalidChildID if id isn't in the schema.
func (s *Schema) New(id element.ID) (element.Element, error) {
	return s.newElement(id, false)
}

// NewLenient is like New, but master elements skip children that aren't in the schema.
func (s *Schema) NewLenient(id element.ID) (element.Element, error) {
	return s.newElement(id, true)
}

func (s *Schema) newElement(id element.ID, lenient bool) (element.Element, error) {
	r, ok := s.ids[id]
	if !ok {
		return nil, encio.NewError(encio.ErrInvalidChildID, fmt.Sprintf("%v is not in the schema", id), 0)
	}

	switch r.Kind {
	case Master:
		m, err := element.NewMaster(id)
		if err != nil {
			return nil, err
		}
		m.SkipUnknown = lenient
		m.Fallback = func(child element.ID) (element.Element, bool) {
			if !s.ChildOf(child, id) {
				return nil, false
			}
			el, err := s.newElement(child, lenient)
			return el, err == nil
		}
		m.Ends = func(other element.ID) bool {
			_, known := s.ids[other]
			return known
		}
		return m, nil
	case Uint:
		return element.NewUInt(id, 0)
	case Int:
		return element.NewInt(id, 0)
	case String, Unicode:
		return element.NewString(id, "")
	case Binary:
		return element.NewBinary(id, nil)
	case Float:
		return element.NewFloat(id, 0)
	case Date:
		return element.NewDate(id, 0)
	default:
		panic(fmt.Sprintf("schema: register %v has unhandled kind", r))
	}
}

// Name returns the name of id, or its hex form if it isn't in the schema.
func (s *Schema) Name(id element.ID) string {
	if r, ok := s.ids[id]; ok {
		return r.Name
	}
	return id.String()
}
