package utils

import "github.com/google/uuid"

// NewUUID returns a random v4 UUID string.
func NewUUID() string {
	return uuid.NewString()
}
