package encio

import (
	"errors"
	"runtime"
)

// Error handling in ebml is designed to provide an easy way to distinguish io errors from malformed or misused data,
// and to reuse a small set of common error kinds for as many errors as possible, with extra information wrapped as applicable.
// Panics are only used when there is a clear misuse of the library; programmer error.
// All error cases are grouped into two error wrappers; IOError and Error.
// IOError errors indicate a failing io.Reader/io.Writer, and the caller should stop using it.
// Error errors indicate the data is malformed, or an element is being used in a way it can't be.
//
// In this way, errors can be checked with
//
//	if errors.Is(err, encio.ErrBadBodySize) {
//		// handle a specific kind
//	} else if errors.Is(err, encio.ErrRead) {
//		// handle a short or failing reader
//	}
//
// These errors will be wrapped by IOError or Error.
var (
	// ErrInvalidVarInt is returned when a variable-length integer has no length marker in its first byte.
	ErrInvalidVarInt = errors.New("invalid variable-length integer")

	// ErrBufferTooSmall is returned when a buffer holds fewer bytes than a decoded or requested width needs.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrVarIntTooBig is returned when a value exceeds MaxVarint.
	ErrVarIntTooBig = errors.New("value too big for a variable-length integer")

	// ErrSpecSizeTooSmall is returned when an explicit encoding width is smaller than the value needs.
	ErrSpecSizeTooSmall = errors.New("specified size too small")

	// ErrInvalidEBMLID is returned when an element ID is zero, reserved or outside the defined width classes.
	ErrInvalidEBMLID = errors.New("invalid EBML ID")

	// ErrInvalidElementID is returned when an element is given an ID that fails EBML ID validation.
	ErrInvalidElementID = errors.New("invalid element ID")

	// ErrBadBodySize is returned when a declared body size doesn't match what the body actually holds.
	ErrBadBodySize = errors.New("bad body size")

	// ErrInvalidChildID is returned when a master element meets a child it doesn't accept.
	ErrInvalidChildID = errors.New("invalid child ID")

	// ErrMissingChild is returned when a master element's body ends without a required child.
	ErrMissingChild = errors.New("missing child")

	// ErrChecksum is returned when a CRC-32 element doesn't match the data it covers.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrSizeChanged is returned when an element can't be rewritten in place because its size changed.
	ErrSizeChanged = errors.New("element size changed")

	// ErrNotSeekable is returned when an operation needs to seek, but the stream can't.
	ErrNotSeekable = errors.New("stream is not seekable")

	// ErrNotWritten is returned when rewriting an element the encoder never wrote.
	ErrNotWritten = errors.New("element not written")

	// ErrBadType is returned when a Go value can't be converted to or from an element.
	ErrBadType = errors.New("bad type")

	// ErrRead is matched by IOErrors from reading.
	ErrRead = errors.New("read error")

	// ErrWrite is matched by IOErrors from writing.
	ErrWrite = errors.New("write error")
)

// NewReadError returns an IOError from reading, wrapping err with the given message.
// err is typically the error returned from the io.Reader, or another error describing why it isn't operating correctly.
// If message is empty, it is filled with the name of the function depth frames above the caller.
func NewReadError(err error, message string, depth int) error {
	return newIOError(err, false, message, depth+1)
}

// NewWriteError returns an IOError from writing, wrapping err with the given message.
func NewWriteError(err error, message string, depth int) error {
	return newIOError(err, true, message, depth+1)
}

func newIOError(err error, write bool, message string, depth int) error {
	if err == nil {
		return NewError(errors.New("unknown error"), "trying to create new IOError", 1)
	}
	if message == "" {
		message = "in " + GetCaller(1+depth)
	}

	return IOError{
		Err:     err,
		Message: message,
		Write:   write,
	}
}

// IOError is returned when io errors occour, or when a stream ends early.
type IOError struct {
	Err     error
	Message string
	Write   bool
}

// Error implements error
func (e IOError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e IOError) Unwrap() error {
	return e.Err
}

// Is matches ErrRead or ErrWrite depending on the direction of the failed operation.
func (e IOError) Is(target error) bool {
	switch target {
	case ErrRead:
		return !e.Write
	case ErrWrite:
		return e.Write
	}
	return false
}

// NewError returns an Error wrapping err with message and the name of the function depth frames above the caller.
func NewError(err error, message string, depth int) error {
	return Error{
		Err:     err,
		Message: message,
		Caller:  GetCaller(1 + depth),
	}
}

// Error is returned when data is malformed, or when an element is used incorrectly.
type Error struct {
	Err     error
	Message string
	Caller  string
}

// Error implements error
func (e Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e Error) Unwrap() error {
	return e.Err
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
