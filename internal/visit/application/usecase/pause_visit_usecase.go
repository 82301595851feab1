package usecase

import (
	"context"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// PauseVisitService implements PauseVisitUseCase.
type PauseVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewPauseVisitService creates the pause use case.
func NewPauseVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *PauseVisitService {
	return &PauseVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute pauses an active visit until the next day or blocks it until an
// unblock.
func (s *PauseVisitService) Execute(ctx context.Context, input in.PauseVisitInput) (*in.VisitView, error) {
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
		metrics.TransitionsRejected.WithLabelValues(domain.ActionPause, rejectReason(err)).Inc()
		return nil, err
	}

	reason := domain.PauseReason(input.Reason)
	target := domain.StatusPausedNextDay
	if reason == domain.PauseBlocked {
		target = domain.StatusBlocked
	}

	// a replayed pause is a no-op
	if reason.Valid() && visit.Status == target {
		return in.NewVisitView(visit), nil
	}

	now := nowUTC()
	from := visit.Status
	if err := visit.Pause(reason, input.BlockReason, now, input.TotalServiceTime); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionPause, rejectReason(err)).Inc()
		return nil, err
	}

	detail := ""
	if visit.Block != nil {
		detail = visit.Block.Reason
	}
	tr := &domain.Transition{
		VisitID:    visit.ID,
		RequestID:  input.RequestID,
		Action:     domain.ActionPause,
		FromStatus: from,
		ToStatus:   visit.Status,
		ActorID:    input.Actor.ID,
		Detail:     detail,
		OccurredAt: now,
	}

	if err := s.visitRepo.UpdateStatus(ctx, visit, from, tr); err != nil {
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, target)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "pause_visit_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionPause).Inc()

	eventType := domain.EventVisitPaused
	message := "Visit paused until the next day"
	if visit.Status == domain.StatusBlocked {
		eventType = domain.EventVisitBlocked
		message = "Visit blocked: " + visit.Block.Reason
	}
	s.log.Info(logger.Entry{
		Action:  "visit_paused",
		Message: string(visit.Status),
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id": visit.EngineerID,
			"paused_from": string(visit.PausedFrom),
			"reason":      input.Reason,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, eventType, message, visit)

	return in.NewVisitView(visit), nil
}
