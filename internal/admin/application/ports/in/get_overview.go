package in

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// GetOverviewInput requests the dispatch dashboard snapshot.
type GetOverviewInput struct {
	Actor Actor
}

// BlockedVisitView is one stuck visit on the dashboard, annotated with how
// long it has been waiting.
type BlockedVisitView struct {
	VisitID     string    `json:"visitId"`
	JobID       string    `json:"jobId"`
	UserID      string    `json:"userId"`
	Reason      string    `json:"reason"`
	Since       time.Time `json:"since"`
	DaysBlocked int       `json:"daysBlocked"`
}

// NewBlockedVisitView maps a blocked visit to its dashboard representation.
func NewBlockedVisitView(b domain.BlockedVisit, now time.Time) BlockedVisitView {
	return BlockedVisitView{
		VisitID:     b.VisitID,
		JobID:       b.JobID,
		UserID:      b.EngineerID,
		Reason:      b.Reason,
		Since:       b.Since,
		DaysBlocked: b.DaysBlocked(now),
	}
}

// GetOverviewOutput is the dashboard snapshot: how many visits sit in each
// status and which ones are stuck.
type GetOverviewOutput struct {
	Timestamp        time.Time          `json:"timestamp"`
	StatusCounts     map[string]int     `json:"statusCounts"`
	EngineersEnRoute int                `json:"engineersEnRoute"`
	EngineersOnSite  int                `json:"engineersOnSite"`
	Blocked          []BlockedVisitView `json:"blocked"`
}

type GetOverviewUseCase interface {
	Execute(ctx context.Context, input GetOverviewInput) (*GetOverviewOutput, error)
}
