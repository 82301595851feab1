package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// ReassignVisitService implements ReassignVisitUseCase.
type ReassignVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewReassignVisitService creates the reassign use case.
func NewReassignVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *ReassignVisitService {
	return &ReassignVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute hands the visit to another engineer. Admin only; works in every
// status including COMPLETED.
func (s *ReassignVisitService) Execute(ctx context.Context, input in.ReassignVisitInput) (*in.VisitView, error) {
	if !input.Actor.IsAdmin {
		err := &domain.AuthorizationError{Reason: "only admins may reassign a visit"}
		metrics.TransitionsRejected.WithLabelValues(domain.ActionReassign, rejectReason(err)).Inc()
		return nil, err
	}

	if replay, err := replayedVisit(ctx, s.visitRepo, input.RequestID); err != nil {
		return nil, err
	} else if replay != nil {
		return in.NewVisitView(replay), nil
	}

	visit, err := s.visitRepo.FindByID(ctx, input.VisitID)
	if err != nil {
		return nil, err
	}

	// a replayed reassign to the current owner is a no-op
	if visit.EngineerID == input.NewEngineerID {
		return in.NewVisitView(visit), nil
	}

	// handing over an active visit must not give the new engineer a second
	// one; their collaborator seat on this visit does not count
	if visit.Status.Active() {
		busy, err := s.visitRepo.HasActiveVisit(ctx, input.NewEngineerID, visit.ID)
		if err != nil {
			return nil, fmt.Errorf("check active visit: %w", err)
		}
		if busy {
			err := &domain.ConflictError{Reason: "engineer already has an active visit"}
			metrics.TransitionsRejected.WithLabelValues(domain.ActionReassign, rejectReason(err)).Inc()
			return nil, err
		}
	}

	now := nowUTC()
	previous := visit.EngineerID
	if err := visit.Reassign(input.NewEngineerID, now); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionReassign, rejectReason(err)).Inc()
		return nil, err
	}

	tr := &domain.Transition{
		VisitID:       visit.ID,
		RequestID:     input.RequestID,
		Action:        domain.ActionReassign,
		FromStatus:    visit.Status,
		ToStatus:      visit.Status,
		ActorID:       input.Actor.ID,
		NewEngineerID: input.NewEngineerID,
		Detail:        "previous engineer " + previous,
		OccurredAt:    now,
	}

	if err := s.visitRepo.UpdateEngineer(ctx, visit, tr); err != nil {
		var cErr *domain.ConflictError
		if errors.As(err, &cErr) {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionReassign, rejectReason(err)).Inc()
			return nil, err
		}
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, visit.Status)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "reassign_visit_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionReassign).Inc()
	s.log.Info(logger.Entry{
		Action:  "visit_reassigned",
		Message: previous + " -> " + input.NewEngineerID,
		VisitID: visit.ID,
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventVisitReassigned, "Visit reassigned", visit)

	// the previous owner stops seeing the visit, tell them too
	n := out.VisitNotification{
		Type:    domain.EventVisitReassigned,
		VisitID: visit.ID,
		Message: "Visit reassigned to another engineer",
		Data:    map[string]any{"status": string(visit.Status)},
	}
	if err := s.notifier.NotifyEngineer(ctx, previous, n); err != nil {
		s.log.Error(logger.Entry{
			Action:  "notify_engineer_failed",
			Message: err.Error(),
			VisitID: visit.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	return in.NewVisitView(visit), nil
}
