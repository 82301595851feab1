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

// ResumeVisitService implements ResumeVisitUseCase.
type ResumeVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewResumeVisitService creates the resume use case.
func NewResumeVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *ResumeVisitService {
	return &ResumeVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute re-enters a paused visit, optionally reassigning it to another
// engineer when the actor is an admin.
func (s *ResumeVisitService) Execute(ctx context.Context, input in.ResumeVisitInput) (*in.VisitView, error) {
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
		metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
		return nil, err
	}
	if input.NewEngineerID != "" && !input.Actor.IsAdmin {
		err := &domain.AuthorizationError{Reason: "only admins may reassign a visit"}
		metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
		return nil, err
	}

	resumeTarget := domain.ResumeTarget(input.ResumeType)
	target := domain.StatusOnRoute
	if resumeTarget == domain.ResumeService {
		target = domain.StatusInService
	}

	// a replayed resume is a no-op
	if resumeTarget.Valid() && visit.Status == target {
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
		metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
		return nil, err
	}

	now := nowUTC()
	from := visit.Status
	if err := visit.Resume(resumeTarget, now); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
		return nil, err
	}
	if input.NewEngineerID != "" {
		if err := visit.Reassign(input.NewEngineerID, now); err != nil {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
			return nil, err
		}
	}

	tr := &domain.Transition{
		VisitID:       visit.ID,
		RequestID:     input.RequestID,
		Action:        domain.ActionResume,
		FromStatus:    from,
		ToStatus:      visit.Status,
		ActorID:       input.Actor.ID,
		NewEngineerID: input.NewEngineerID,
		Detail:        input.ResumeType,
		OccurredAt:    now,
	}

	if err := s.visitRepo.UpdateStatus(ctx, visit, from, tr); err != nil {
		var cErr *domain.ConflictError
		if errors.As(err, &cErr) {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionResume, rejectReason(err)).Inc()
			return nil, err
		}
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, target)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "resume_visit_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionResume).Inc()
	s.log.Info(logger.Entry{
		Action:  "visit_resumed",
		Message: input.ResumeType,
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id":     visit.EngineerID,
			"new_engineer_id": input.NewEngineerID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventVisitResumed, "Visit resumed", visit)

	return in.NewVisitView(visit), nil
}
