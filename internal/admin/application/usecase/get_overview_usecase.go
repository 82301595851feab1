package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// Visit store status values the dashboard aggregates over.
const (
	statusOnRoute   = "ON_ROUTE"
	statusInService = "IN_SERVICE"
)

// GetOverviewService implements GetOverviewUseCase.
type GetOverviewService struct {
	visits out.VisitReader
	log    *logger.Logger
}

// NewGetOverviewService creates the dashboard snapshot use case.
func NewGetOverviewService(visits out.VisitReader, log *logger.Logger) *GetOverviewService {
	return &GetOverviewService{visits: visits, log: log}
}

// Execute builds the dispatch dashboard snapshot. The status counts are the
// core of the screen and fail the request; the blocked list degrades to
// empty on error.
func (s *GetOverviewService) Execute(ctx context.Context, input in.GetOverviewInput) (*in.GetOverviewOutput, error) {
	if !input.Actor.IsAdmin {
		return nil, &domain.AuthorizationError{Reason: "only admins can view the overview"}
	}

	now := time.Now().UTC()

	counts, err := s.visits.CountByStatus(ctx)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "overview_counts_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if counts == nil {
		counts = map[string]int{}
	}

	blocked, err := s.visits.ListBlocked(ctx)
	if err != nil {
		s.log.Warn(logger.Entry{
			Action:  "overview_blocked_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		blocked = nil
	}

	views := make([]in.BlockedVisitView, 0, len(blocked))
	for _, b := range blocked {
		views = append(views, in.NewBlockedVisitView(b, now))
	}

	return &in.GetOverviewOutput{
		Timestamp:        now,
		StatusCounts:     counts,
		EngineersEnRoute: counts[statusOnRoute],
		EngineersOnSite:  counts[statusInService],
		Blocked:          views,
	}, nil
}
