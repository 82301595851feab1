package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// defaultCalendarWindow is used when the caller gives no explicit range.
const defaultCalendarWindow = 7 * 24 * time.Hour

// GetCalendarService implements GetCalendarUseCase.
type GetCalendarService struct {
	visits   out.VisitReader
	schedule out.ScheduleRepository
	log      *logger.Logger
}

// NewGetCalendarService creates the merged calendar use case.
func NewGetCalendarService(visits out.VisitReader, schedule out.ScheduleRepository, log *logger.Logger) *GetCalendarService {
	return &GetCalendarService{visits: visits, schedule: schedule, log: log}
}

// Execute merges visit phase windows and schedule entries into one timeline,
// sorted by start time.
func (s *GetCalendarService) Execute(ctx context.Context, input in.GetCalendarInput) (*in.GetCalendarOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = input.Actor.ID
	}
	if !input.Actor.IsAdmin && userID != input.Actor.ID {
		return nil, &domain.AuthorizationError{Reason: "cannot read another engineer's calendar"}
	}

	from, to, err := calendarWindow(input.From, input.To, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	windows, err := s.visits.ListVisitWindows(ctx, userID, from, to)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "calendar_visits_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list visit windows: %w", err)
	}
	entries, err := s.schedule.ListRange(ctx, userID, from, to)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "calendar_entries_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(windows)*2+len(entries))
	for _, w := range windows {
		events = append(events, w.Events()...)
	}
	for _, e := range entries {
		events = append(events, domain.EntryEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})

	return &in.GetCalendarOutput{Events: events, Count: len(events)}, nil
}

// calendarWindow fills missing range bounds. Both missing: a week starting
// at today's UTC midnight. One missing: a week relative to the other bound.
func calendarWindow(from, to, now time.Time) (time.Time, time.Time, error) {
	switch {
	case from.IsZero() && to.IsZero():
		from = now.Truncate(24 * time.Hour)
		to = from.Add(defaultCalendarWindow)
	case from.IsZero():
		from = to.Add(-defaultCalendarWindow)
	case to.IsZero():
		to = from.Add(defaultCalendarWindow)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	return from.UTC(), to.UTC(), nil
}
