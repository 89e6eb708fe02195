package encio

import (
	"fmt"
	"io"
)

// MaxIDWidth is the widest element ID, in bytes.
const MaxIDWidth = 4

// Element IDs use the variable-length integer layout, but keep their length marker as part of the value.
// Each width class spans [marker, marker|data-1]; the all-ones value of a class is reserved.
var idClasses = [MaxIDWidth]struct {
	min, max uint32
}{
	{0x80, 0xfe},
	{0x4000, 0x7ffe},
	{0x200000, 0x3ffffe},
	{0x10000000, 0x1ffffffe},
}

// IDSize returns the number of bytes id is encoded in.
func IDSize(id uint32) (int, error) {
	for i, class := range idClasses {
		if id <= class.max+1 {
			if id < class.min || id == class.max+1 {
				break
			}
			return i + 1, nil
		}
	}
	return 0, NewError(ErrInvalidEBMLID, fmt.Sprintf("%#x is not a valid ID", id), 0)
}

// EncodeID encodes id to buff, returning the number of bytes written.
func EncodeID(buff []byte, id uint32) (int, error) {
	width, err := IDSize(id)
	if err != nil {
		return 0, err
	}

	if len(buff) < width {
		return 0, NewError(ErrBufferTooSmall, fmt.Sprintf("need %v bytes but buffer is %v", width, len(buff)), 0)
	}

	for i := width - 1; i >= 0; i-- {
		buff[i] = byte(id)
		id >>= 8
	}
	return width, nil
}

// DecodeID decodes an element ID from buff.
// It returns the ID with its length marker, and the number of bytes it was encoded in.
func DecodeID(buff []byte) (uint32, int, error) {
	if len(buff) == 0 {
		return 0, 0, NewError(ErrBufferTooSmall, "empty buffer", 0)
	}

	width := VarintWidth(buff[0])
	if width == 0 || width > MaxIDWidth {
		return 0, 0, NewError(ErrInvalidEBMLID, fmt.Sprintf("first byte %#02x doesn't start an ID", buff[0]), 0)
	}

	if len(buff) < width {
		return 0, 0, NewError(ErrBufferTooSmall, fmt.Sprintf("need %v bytes but buffer is %v", width, len(buff)), 0)
	}

	id := getID(buff, width)
	if _, err := IDSize(id); err != nil {
		return 0, 0, err
	}
	return id, width, nil
}

func getID(buff []byte, width int) uint32 {
	var id uint32
	for i := 0; i < width; i++ {
		id = id<<8 | uint32(buff[i])
	}
	return id
}

// ID provides methods for reading and writing element IDs.
type ID [MaxIDWidth]byte

// Encode writes id to w.
// It returns the number of bytes written.
func (buff *ID) Encode(w io.Writer, id uint32) (int, error) {
	l, err := EncodeID(buff[:], id)
	if err != nil {
		return 0, err
	}
	return l, Write(buff[:l], w)
}

// Decode reads an element ID from r.
// It returns the ID and the number of bytes read.
func (buff *ID) Decode(r io.Reader) (uint32, int, error) {
	if err := Read(buff[:1], r); err != nil {
		return 0, 0, err
	}

	width := VarintWidth(buff[0])
	if width == 0 || width > MaxIDWidth {
		return 0, 1, NewError(ErrInvalidEBMLID, fmt.Sprintf("first byte %#02x doesn't start an ID", buff[0]), 0)
	}

	if err := Read(buff[1:width], r); err != nil {
		return 0, 1, Truncated(err)
	}

	id := getID(buff[:], width)
	if _, err := IDSize(id); err != nil {
		return 0, width, err
	}
	return id, width, nil
}
