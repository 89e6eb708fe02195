package encio

import (
	"io"
	"os"
)

// Warnings is where warnings are sent to.
// In many cases decoding will continue past e.g. garbage after a string terminator, or an unknown child the caller asked to skip,
// however these shouldn't pass silently.
var Warnings io.Writer = os.Stderr
