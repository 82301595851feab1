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

// UnblockVisitService implements UnblockVisitUseCase.
type UnblockVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewUnblockVisitService creates the unblock use case.
func NewUnblockVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *UnblockVisitService {
	return &UnblockVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute lifts a block, returning the visit to the phase the block
// interrupted, optionally reassigning it when the actor is an admin.
func (s *UnblockVisitService) Execute(ctx context.Context, input in.UnblockVisitInput) (*in.VisitView, error) {
	if replay, err := replayedVisit(ctx, s.visitRepo, input.RequestID); err != nil {
		return nil, err
	} else if replay != nil {
		return in.NewVisitView(replay), nil
	}

	visit, err := s.visitRepo.FindByID(ctx, input.VisitID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(visit, input.Actor.ID, input.Actor.IsAdmin); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
		return nil, err
	}
	if input.NewEngineerID != "" && !input.Actor.IsAdmin {
		err := &domain.AuthorizationError{Reason: "only admins may reassign a visit"}
		metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
		return nil, err
	}

	// a replayed unblock finds the visit already back in an active phase
	if visit.Status.Active() && visit.Block == nil {
		return in.NewVisitView(visit), nil
	}

	// the engineer taking the visit back must not be active elsewhere,
	// collaborations included
	owner := visit.EngineerID
	if input.NewEngineerID != "" {
		owner = input.NewEngineerID
	}
	busy, err := s.visitRepo.HasActiveVisit(ctx, owner, visit.ID)
	if err != nil {
		return nil, fmt.Errorf("check active visit: %w", err)
	}
	if busy {
		err := &domain.ConflictError{Reason: "engineer already has an active visit"}
		metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
		return nil, err
	}

	now := nowUTC()
	from := visit.Status
	if err := visit.Unblock(now); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
		return nil, err
	}
	if input.NewEngineerID != "" {
		if err := visit.Reassign(input.NewEngineerID, now); err != nil {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
			return nil, err
		}
	}

	tr := &domain.Transition{
		VisitID:       visit.ID,
		RequestID:     input.RequestID,
		Action:        domain.ActionUnblock,
		FromStatus:    from,
		ToStatus:      visit.Status,
		ActorID:       input.Actor.ID,
		NewEngineerID: input.NewEngineerID,
		OccurredAt:    now,
	}

	if err := s.visitRepo.UpdateStatus(ctx, visit, from, tr); err != nil {
		var cErr *domain.ConflictError
		if errors.As(err, &cErr) {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionUnblock, rejectReason(err)).Inc()
			return nil, err
		}
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, visit.Status)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "unblock_visit_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionUnblock).Inc()
	s.log.Info(logger.Entry{
		Action:  "visit_unblocked",
		Message: string(visit.Status),
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id":     visit.EngineerID,
			"new_engineer_id": input.NewEngineerID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventVisitResumed, "Visit unblocked", visit)

	return in.NewVisitView(visit), nil
}
