package uuid

import "github.com/google/uuid"

// New returns the bytes of a random v4 uuid.
func New() []byte {
	id := uuid.New()
	return id[:]
}
