package encio

import "github.com/google/uuid"

// UIDSize is the size of the random UIDs used for segments, tracks and attachments.
const UIDSize = 16

// NewUID returns 16 random bytes, suitable for an EBML UID.
// It panics if the system's random source fails.
func NewUID() [UIDSize]byte {
	return uuid.New()
}
