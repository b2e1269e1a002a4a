package utils

import (
	"github.com/google/uuid"
)

// NewBookingID returns a random (version 4) booking id.
func NewBookingID() string {
	return uuid.NewString()
}

// IsBookingID accepts the canonical 36-character form of an RFC 4122 UUID
// with version 1 to 5. Braced, URN and compact forms are rejected.
func IsBookingID(id string) bool {
	if len(id) != 36 {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if v := u.Version(); v < 1 || v > 5 {
		return false
	}
	return u.Variant() == uuid.RFC4122
}
