package in

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// GetCalendarInput requests the merged calendar for one engineer. Admins may
// request any engineer; engineers only their own.
type GetCalendarInput struct {
	Actor  Actor
	UserID string
	From   time.Time
	To     time.Time
}

// GetCalendarOutput carries visit phase events and schedule entries merged
// into one timeline.
type GetCalendarOutput struct {
	Events []domain.CalendarEvent `json:"events"`
	Count  int                    `json:"count"`
}

type GetCalendarUseCase interface {
	Execute(ctx context.Context, input GetCalendarInput) (*GetCalendarOutput, error)
}
