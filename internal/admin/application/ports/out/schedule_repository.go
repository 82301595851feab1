package out

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// ScheduleRepository is the persistence port for schedule entries.
type ScheduleRepository interface {
	Create(ctx context.Context, entry *domain.ScheduleEntry) error

	// ListRange returns entries overlapping [from, to] for one engineer,
	// earliest first.
	ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]*domain.ScheduleEntry, error)
}
