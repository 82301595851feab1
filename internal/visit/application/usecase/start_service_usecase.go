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

// StartServiceService implements StartServiceUseCase.
type StartServiceService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewStartServiceService creates the start-service use case.
func NewStartServiceService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *StartServiceService {
	return &StartServiceService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute marks arrival on site: the journey closes and service begins.
func (s *StartServiceService) Execute(ctx context.Context, input in.StartServiceInput) (*in.VisitView, error) {
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
		metrics.TransitionsRejected.WithLabelValues(domain.ActionStartService, rejectReason(err)).Inc()
		return nil, err
	}

	// a replayed arrival is a no-op
	if visit.Status == domain.StatusInService {
		return in.NewVisitView(visit), nil
	}

	now := nowUTC()
	from := visit.Status
	if err := visit.StartService(now, input.TotalJourneyTime); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionStartService, rejectReason(err)).Inc()
		return nil, err
	}

	tr := &domain.Transition{
		VisitID:    visit.ID,
		RequestID:  input.RequestID,
		Action:     domain.ActionStartService,
		FromStatus: from,
		ToStatus:   visit.Status,
		ActorID:    input.Actor.ID,
		OccurredAt: now,
	}

	if err := s.visitRepo.UpdateStatus(ctx, visit, from, tr); err != nil {
		resolved, rerr := resolvePersist(ctx, s.visitRepo, err, visit.ID, input.RequestID, domain.StatusInService)
		if rerr != nil {
			s.log.Error(logger.Entry{
				Action:  "start_service_failed",
				Message: rerr.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: rerr.Error()},
			})
			return nil, rerr
		}
		return in.NewVisitView(resolved), nil
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionStartService).Inc()
	s.log.Info(logger.Entry{
		Action:  "service_started",
		Message: fmt.Sprintf("journey took %s", minutesLabel(visit.Journey.TotalMinutes)),
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id": visit.EngineerID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventServiceStarted, "Service started", visit)

	return in.NewVisitView(visit), nil
}

func minutesLabel(minutes *int) string {
	if minutes == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d min", *minutes)
}
