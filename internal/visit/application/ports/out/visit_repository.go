package out

import (
	"context"
	"errors"

	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

var (
	// ErrStaleStatus is returned when a conditional status update matched no
	// row because the visit left the expected source status concurrently.
	ErrStaleStatus = errors.New("visit status changed concurrently")

	// ErrDuplicateRequest is returned when a transition carries a request id
	// the store has already recorded.
	ErrDuplicateRequest = errors.New("request id already recorded")
)

// VisitRepository is the persistence port for visits, their collaborators
// and their transition history.
type VisitRepository interface {
	// Create inserts a new visit and its opening transition in one
	// transaction, enforcing the one-active-visit rule for the owner.
	Create(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error

	// FindByID returns the visit with its collaborators.
	FindByID(ctx context.Context, visitID string) (*domain.Visit, error)

	// FindByRequestID returns the visit a recorded request id belongs to.
	FindByRequestID(ctx context.Context, requestID string) (*domain.Visit, error)

	// UpdateStatus persists an applied transition with an update conditional
	// on the expected source status, recording tr in the same transaction.
	// Transitions landing in an active status re-check the one-active-visit
	// rule for the owner, counting every visit but this one.
	// Returns ErrStaleStatus when the condition matched no row and
	// ErrDuplicateRequest when tr.RequestID was already recorded.
	UpdateStatus(ctx context.Context, visit *domain.Visit, from domain.Status, tr *domain.Transition) error

	// UpdateEngineer persists an administrative reassignment without
	// touching the status, enforcing the one-active-visit rule for the new
	// engineer when the visit is active.
	UpdateEngineer(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error

	// AddCollaborator attaches an engineer to the visit, enforcing the
	// one-active-visit rule for the joining engineer.
	AddCollaborator(ctx context.Context, visitID string, c domain.Collaborator, tr *domain.Transition) error

	// HasActiveVisit reports whether the engineer owns or collaborates on a
	// visit in an active status. A non-empty excludeVisitID leaves that visit
	// out of the count, for checks made on behalf of the visit itself.
	HasActiveVisit(ctx context.Context, engineerID, excludeVisitID string) (bool, error)

	// ListForEngineer returns the engineer's own visits plus collaborations,
	// newest first.
	ListForEngineer(ctx context.Context, engineerID string) ([]*domain.Visit, error)

	// ListAll returns every visit, optionally filtered to one engineer,
	// newest first.
	ListAll(ctx context.Context, engineerID string) ([]*domain.Visit, error)
}
