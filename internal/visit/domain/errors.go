package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrVisitNotFound is returned when no visit matches the given id.
	ErrVisitNotFound = errors.New("visit not found")

	// ErrEngineerNotFound is returned when the target engineer does not exist.
	ErrEngineerNotFound = errors.New("engineer not found")
)

// InvalidTransitionError reports a transition that is not legal from the
// visit's current status.
type InvalidTransitionError struct {
	From      Status
	Attempted Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.Attempted)
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports an actor acting outside their rights on a visit.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

// ConflictError reports a violated uniqueness rule: a second active visit for
// one engineer, or a duplicate collaboration join.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}
