package out

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// LedgerReader is the read-only port over the location ledger for travel
// reports.
type LedgerReader interface {
	// ListRange returns the engineer's track points in [from, to), ordered
	// by recorded time.
	ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]domain.TrackPoint, error)
}
