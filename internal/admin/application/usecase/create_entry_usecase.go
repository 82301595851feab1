package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
)

// CreateEntryService implements CreateEntryUseCase.
type CreateEntryService struct {
	schedule out.ScheduleRepository
	log      *logger.Logger
}

// NewCreateEntryService creates the schedule entry creation use case.
func NewCreateEntryService(schedule out.ScheduleRepository, log *logger.Logger) *CreateEntryService {
	return &CreateEntryService{schedule: schedule, log: log}
}

// Execute adds a calendar item. Engineers schedule for themselves; admins
// for anyone.
func (s *CreateEntryService) Execute(ctx context.Context, input in.CreateEntryInput) (*in.EntryView, error) {
	userID := input.UserID
	if userID == "" {
		userID = input.Actor.ID
	}
	if !input.Actor.IsAdmin && userID != input.Actor.ID {
		return nil, &domain.AuthorizationError{Reason: "cannot schedule for another engineer"}
	}

	entry, err := domain.NewScheduleEntry(
		utils.NewUUID(), userID, input.EntryType, input.Title,
		input.StartsAt, input.EndsAt, input.Actor.ID, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.schedule.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrEngineerNotFound) {
			return nil, err
		}
		s.log.Error(logger.Entry{
			Action:  "create_entry_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("create schedule entry: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:     "schedule_entry_created",
		Message:    "schedule entry created",
		Additional: map[string]any{"entry_id": entry.ID, "user_id": entry.EngineerID, "entry_type": entry.EntryType},
	})
	return in.NewEntryView(entry), nil
}
