// Package id provides UUIDv7 generation for analysis sessions.
// UUIDv7 is time-ordered, so session keys sort by creation time.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NewString returns New() in its canonical string form.
func NewString() string {
	return New().String()
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsValid reports whether s is a well-formed ID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
