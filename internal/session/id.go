package session

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a random (version 4) UUID in canonical form,
// which is the only shape NewID produces.
func ValidateID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", id, err)
	}
	if u.Version() != 4 || u.String() != id {
		return fmt.Errorf("invalid session id %q: want a canonical v4 uuid", id)
	}
	return nil
}
