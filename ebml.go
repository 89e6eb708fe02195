// Package ebml reads and writes EBML, the binary format behind Matroska and WebM.
//
// An EBML document is a sequence of elements, each framed as an ID, the size of its body, then the body.
// Master elements hold other elements in their body; every other element holds a single value.
//
// Encoder and Decoder work on streams of elements: the Encoder remembers where it wrote things so they can be
// rewritten in place, and can begin master elements before their size is known. The Decoder walks element headers,
// decodes into known elements, or decodes anything using a schema.
//
// ebml/element provides the elements and their framing, for use without an Encoder or Decoder.
//
// ebml/schema maps element IDs to the kinds of value they hold.
//
// ebml/encio provides the integer codecs, io helpers and error types the rest is built on.
package ebml

import (
	"io"

	"github.com/stewi1014/ebml/element"
)

// Write writes a document made of header followed by els to w.
func Write(w io.Writer, header *Header, els ...element.Element) error {
	enc := NewEncoder(w, nil)
	if err := enc.Encode(header); err != nil {
		return err
	}
	for _, el := range els {
		if err := enc.Encode(el); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll reads a document's header, then every element after it until r ends.
// Elements are decoded using the schema in config.
func ReadAll(r io.Reader, config *Config) (*Header, []element.Element, error) {
	dec := NewDecoder(r, config)
	header, err := dec.DecodeHeader()
	if err != nil {
		return nil, nil, err
	}

	var els []element.Element
	for {
		el, err := dec.DecodeAny()
		if err == io.EOF {
			return header, els, nil
		}
		if err != nil {
			return header, els, err
		}
		els = append(els, el)
	}
}
