package ebml

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/encio"
	"github.com/stewi1014/ebml/schema"
)

// StructTag is the struct tag naming the element a field is written as.
// Its value is the element's name in the schema, optionally followed by ",omitempty".
// Fields tagged "-" and unexported fields are ignored; exported fields without a name in their tag use the field's name.
const StructTag = "ebml"

var (
	elementType = reflect.TypeOf(new(element.Element)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// Marshal writes the fields of the struct v points to as elements, in field order.
//
// Master elements are written from structs or pointers to structs, and slices of anything other than []byte
// are written as one element per item. Values that implement element.Element are written as they are.
// Nil pointers, and zero values of fields tagged omitempty, are left out.
func Marshal(w io.Writer, v interface{}, config *Config) error {
	rv, err := structPointer(v)
	if err != nil {
		return err
	}

	enc := NewEncoder(w, config)
	els, err := structElements(rv, enc.config.Schema)
	if err != nil {
		return err
	}

	for _, el := range els {
		if err := enc.Encode(el); err != nil {
			return err
		}
	}
	return nil
}

// Unmarshal reads every element from r into the fields of the struct v points to.
// Elements without a matching field are ignored, and fields without a matching element are left as they are,
// except slices, which are emptied before elements are appended to them.
func Unmarshal(r io.Reader, v interface{}, config *Config) error {
	rv, err := structPointer(v)
	if err != nil {
		return err
	}

	dec := NewDecoder(r, config)
	var els []element.Element
	for {
		el, err := dec.DecodeAny()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		els = append(els, el)
	}

	return fillStruct(els, rv, dec.config.Schema)
}

func structPointer(v interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return rv, encio.NewError(encio.ErrBadType, fmt.Sprintf("%T is not a pointer to a struct", v), 0)
	}
	return rv.Elem(), nil
}

type structField struct {
	index     int
	reg       schema.Register
	omitEmpty bool
	multiple  bool
}

type fieldsID struct {
	ty     reflect.Type
	schema *schema.Schema
}

var fieldCache = struct {
	sync.Mutex
	m map[fieldsID][]structField
}{m: make(map[fieldsID][]structField)}

func structFields(ty reflect.Type, s *schema.Schema) ([]structField, error) {
	fieldCache.Lock()
	defer fieldCache.Unlock()

	id := fieldsID{ty: ty, schema: s}
	if fields, ok := fieldCache.m[id]; ok {
		return fields, nil
	}

	var fields []structField
	for i := 0; i < ty.NumField(); i++ {
		field := ty.Field(i)
		if field.PkgPath != "" {
			// Unexported
			continue
		}

		name := field.Name
		var opts []string
		if tag, ok := field.Tag.Lookup(StructTag); ok {
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			opts = parts[1:]
		}

		reg, ok := s.ByName(name)
		if !ok {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("field %v of %v is %v, which isn't in the schema", field.Name, ty, name), 0)
		}

		f := structField{
			index:    i,
			reg:      reg,
			multiple: isMultiple(reg, field.Type),
		}

		for _, opt := range opts {
			switch opt {
			case "omitempty":
				f.omitEmpty = true
			default:
				fmt.Fprintf(encio.Warnings, "ebml: unknown option %q in struct tag of %v.%v\n", opt, ty, field.Name)
			}
		}

		for _, existing := range fields {
			if existing.reg.ID == reg.ID {
				return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("fields %v and %v of %v are both %v", ty.Field(existing.index).Name, field.Name, ty, reg.Name), 0)
			}
		}

		fields = append(fields, f)
	}

	fieldCache.m[id] = fields
	return fields, nil
}

// isMultiple reports whether a field of type ty holds any number of reg.
func isMultiple(reg schema.Register, ty reflect.Type) bool {
	if ty.Kind() != reflect.Slice || ty.Implements(elementType) {
		return false
	}
	return !(reg.Kind == schema.Binary && ty.Elem().Kind() == reflect.Uint8)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// asElement returns v as an element, if it is one.
func asElement(v reflect.Value) (element.Element, bool) {
	if v.Type().Implements(elementType) {
		el, ok := v.Interface().(element.Element)
		return el, ok
	}
	if v.CanAddr() && reflect.PtrTo(v.Type()).Implements(elementType) {
		return v.Addr().Interface().(element.Element), true
	}
	return nil, false
}

func structElements(v reflect.Value, s *schema.Schema) ([]element.Element, error) {
	fields, err := structFields(v.Type(), s)
	if err != nil {
		return nil, err
	}

	var els []element.Element
	for _, f := range fields {
		fv := v.Field(f.index)
		if isNil(fv) || (f.omitEmpty && fv.IsZero()) {
			continue
		}

		if !f.multiple {
			el, err := toElement(f.reg, fv, s)
			if err != nil {
				return nil, err
			}
			els = append(els, el)
			continue
		}

		for i := 0; i < fv.Len(); i++ {
			if isNil(fv.Index(i)) {
				continue
			}
			el, err := toElement(f.reg, fv.Index(i), s)
			if err != nil {
				return nil, err
			}
			els = append(els, el)
		}
	}
	return els, nil
}

func toElement(reg schema.Register, v reflect.Value, s *schema.Schema) (element.Element, error) {
	if el, ok := asElement(v); ok {
		if el.ID() != reg.ID {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("%T has ID %v, but is written as %v", el, el.ID(), reg), 0)
		}
		return el, nil
	}

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch kind := v.Kind(); {
	case reg.Kind == schema.Master && kind == reflect.Struct:
		m, err := element.NewMaster(reg.ID)
		if err != nil {
			return nil, err
		}
		children, err := structElements(v, s)
		if err != nil {
			return nil, err
		}
		if err := m.Append(children...); err != nil {
			return nil, err
		}
		return m, nil

	case reg.Kind == schema.Uint && isUint(kind):
		el, err := element.NewUInt(reg.ID, v.Uint())
		if err != nil {
			return nil, err
		}
		return el, nil

	case reg.Kind == schema.Int && isInt(kind):
		el, err := element.NewInt(reg.ID, v.Int())
		if err != nil {
			return nil, err
		}
		return el, nil

	case reg.Kind == schema.Float && (kind == reflect.Float32 || kind == reflect.Float64):
		el, err := element.NewFloat(reg.ID, v.Float())
		if err != nil {
			return nil, err
		}
		if kind == reflect.Float32 {
			el.SetPrecision(element.Single)
		}
		return el, nil

	case (reg.Kind == schema.String || reg.Kind == schema.Unicode) && kind == reflect.String:
		el, err := element.NewString(reg.ID, v.String())
		if err != nil {
			return nil, err
		}
		return el, nil

	case reg.Kind == schema.Binary && kind == reflect.String:
		el, err := element.NewBinary(reg.ID, []byte(v.String()))
		if err != nil {
			return nil, err
		}
		return el, nil

	case reg.Kind == schema.Binary && kind == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		el, err := element.NewBinary(reg.ID, v.Bytes())
		if err != nil {
			return nil, err
		}
		return el, nil

	case reg.Kind == schema.Date && v.Type() == timeType:
		el, err := element.NewDate(reg.ID, 0)
		if err != nil {
			return nil, err
		}
		el.SetTime(v.Interface().(time.Time))
		return el, nil

	default:
		return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("can't write %v as %v", v.Type(), reg), 0)
	}
}

func fillStruct(els []element.Element, v reflect.Value, s *schema.Schema) error {
	fields, err := structFields(v.Type(), s)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if fv := v.Field(f.index); f.multiple && !fv.IsNil() {
			fv.SetLen(0)
		}
	}

	for _, el := range els {
		f := fieldOf(fields, el.ID())
		if f == nil {
			continue
		}

		fv := v.Field(f.index)
		if !f.multiple {
			if err := fromElement(el, fv, s); err != nil {
				return err
			}
			continue
		}

		item := reflect.New(fv.Type().Elem()).Elem()
		if err := fromElement(el, item, s); err != nil {
			return err
		}
		fv.Set(reflect.Append(fv, item))
	}
	return nil
}

func fieldOf(fields []structField, id element.ID) *structField {
	for i := range fields {
		if fields[i].reg.ID == id {
			return &fields[i]
		}
	}
	return nil
}

func fromElement(el element.Element, v reflect.Value, s *schema.Schema) error {
	if reflect.TypeOf(el).AssignableTo(v.Type()) {
		v.Set(reflect.ValueOf(el))
		return nil
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}

	if dst, ok := asElement(v); ok {
		return copyElement(dst, el)
	}

	kind := v.Kind()
	switch el := el.(type) {
	case *element.Master:
		if kind == reflect.Struct {
			return fillStruct(el.Children(), v, s)
		}

	case *element.UInt:
		if isUint(kind) {
			if v.OverflowUint(el.Value()) {
				return overflows(el, v)
			}
			v.SetUint(el.Value())
			return nil
		}

	case *element.Int:
		if isInt(kind) {
			if v.OverflowInt(el.Value()) {
				return overflows(el, v)
			}
			v.SetInt(el.Value())
			return nil
		}

	case *element.Float:
		if kind == reflect.Float32 || kind == reflect.Float64 {
			if v.OverflowFloat(el.Value()) {
				return overflows(el, v)
			}
			v.SetFloat(el.Value())
			return nil
		}

	case *element.String:
		if kind == reflect.String {
			v.SetString(el.Value())
			return nil
		}

	case *element.Binary:
		switch {
		case kind == reflect.String:
			v.SetString(string(el.Value()))
			return nil
		case kind == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
			v.SetBytes(el.Value())
			return nil
		}

	case *element.Date:
		if v.Type() == timeType {
			v.Set(reflect.ValueOf(el.Time()))
			return nil
		}
	}

	return encio.NewError(encio.ErrBadType, fmt.Sprintf("can't read %T %v into %v", el, el.ID(), v.Type()), 0)
}

// copyElement reads src into dst by writing it out and reading it back.
func copyElement(dst, src element.Element) error {
	if dst.ID() != src.ID() {
		return encio.NewError(encio.ErrBadType, fmt.Sprintf("can't read %v into %T with ID %v", src.ID(), dst, dst.ID()), 0)
	}

	buff := new(bytes.Buffer)
	if _, err := element.Write(buff, src); err != nil {
		return err
	}
	_, err := element.Read(buff, dst)
	return err
}

func overflows(el element.Element, v reflect.Value) error {
	return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v overflows %v", el, v.Type()), 0)
}

func isUint(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isInt(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}
