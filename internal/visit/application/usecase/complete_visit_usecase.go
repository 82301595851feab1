package usecase

import (
	"context"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// CompleteVisitService implements CompleteVisitUseCase.
type CompleteVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewCompleteVisitService creates the complete use case.
func NewCompleteVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *CompleteVisitService {
	return &CompleteVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute closes the service phase and the visit.
func (s *CompleteVisitService) Execute(ctx context.Context, input in.CompleteVisitInput) (*in.VisitView, error) {
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
		metrics.TransitionsRejected.WithLabelValues(domain.ActionComplete, rejectReason(err)).Inc()
		return nil, err
	}

	// a replayed complete returns the stored record, durations untouched
	if visit.Status == domain.StatusCompleted {
		return in.NewVisitView(visit), nil
	}

	now := nowUTC()
	from := visit.Status
	if err := visit.Complete(now, input.TotalServiceTime); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionComplete, rejectReason(err)).Inc()
		return nil, err
	}

	tr := &domain.Transition{
		VisitID:    visit.ID,
		RequestID:  input.RequestID,
		Action:     domain.ActionComplete,
		FromStatus: from,
		ToStatus:   visit.Status,
		ActorID:    input.Actor.ID,
		OccurredAt: now,
	}

	if err := s.visitRepo.UpdateStatus(ctx, visit, from, tr); err != nil {
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, domain.StatusCompleted)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "complete_visit_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionComplete).Inc()
	s.log.Info(logger.Entry{
		Action:  "visit_completed",
		Message: fmt.Sprintf("service took %s", minutesLabel(visit.Service.TotalMinutes)),
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id": visit.EngineerID,
			"job_id":      visit.JobID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventVisitCompleted, "Visit completed", visit)

	return in.NewVisitView(visit), nil
}
