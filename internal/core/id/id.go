// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, so primary keys sort by creation time.
package id

import (
	"strings"

	"github.com/google/uuid"

	"autobill/internal/core/apperror"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// ParseField parses s and reports a validation error naming field on failure.
func ParseField(field, s string) (ID, error) {
	v, err := Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
