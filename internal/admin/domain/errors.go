package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for a failed login. The message never
	// reveals whether the email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEngineerNotFound is returned when the target engineer does not exist.
	ErrEngineerNotFound = errors.New("engineer not found")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports an actor acting outside their rights.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}
