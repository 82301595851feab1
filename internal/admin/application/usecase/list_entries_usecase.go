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

// ListEntriesService implements ListEntriesUseCase.
type ListEntriesService struct {
	schedule out.ScheduleRepository
	log      *logger.Logger
}

// NewListEntriesService creates the schedule entry listing use case.
func NewListEntriesService(schedule out.ScheduleRepository, log *logger.Logger) *ListEntriesService {
	return &ListEntriesService{schedule: schedule, log: log}
}

// Execute lists an engineer's schedule entries in a window, earliest first.
func (s *ListEntriesService) Execute(ctx context.Context, input in.ListEntriesInput) (*in.ListEntriesOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = input.Actor.ID
	}
	if !input.Actor.IsAdmin && userID != input.Actor.ID {
		return nil, &domain.AuthorizationError{Reason: "cannot read another engineer's schedule"}
	}

	from, to, err := calendarWindow(input.From, input.To, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	entries, err := s.schedule.ListRange(ctx, userID, from, to)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "list_entries_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}

	views := make([]*in.EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, in.NewEntryView(e))
	}
	return &in.ListEntriesOutput{Entries: views, Count: len(views)}, nil
}
