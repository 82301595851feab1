package out

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// VisitReader is the read-only port over the visit store for the dispatch
// screens. The visit service owns all writes.
type VisitReader interface {
	// CountByStatus returns the number of visits in each status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// ListBlocked returns every blocked visit, oldest block first.
	ListBlocked(ctx context.Context) ([]domain.BlockedVisit, error)

	// ListVisitWindows returns the phase windows of visits overlapping
	// [from, to] for one engineer.
	ListVisitWindows(ctx context.Context, engineerID string, from, to time.Time) ([]domain.VisitWindows, error)
}
