package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// StartJourneyService implements StartJourneyUseCase.
type StartJourneyService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewStartJourneyService creates the start-journey use case.
func NewStartJourneyService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *StartJourneyService {
	return &StartJourneyService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute creates a visit for the acting engineer and opens its journey.
func (s *StartJourneyService) Execute(ctx context.Context, input in.StartJourneyInput) (*in.VisitView, error) {
	if replay, err := replayedVisit(ctx, s.visitRepo, input.RequestID); err != nil {
		return nil, err
	} else if replay != nil {
		return in.NewVisitView(replay), nil
	}

	now := nowUTC()
	visit, err := domain.NewVisit(utils.NewUUID(), input.JobID, input.Actor.ID, input.Latitude, input.Longitude, now)
	if err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionStartJourney, rejectReason(err)).Inc()
		return nil, err
	}

	tr := &domain.Transition{
		VisitID:    visit.ID,
		RequestID:  input.RequestID,
		Action:     domain.ActionStartJourney,
		FromStatus: domain.StatusNotStarted,
		ToStatus:   visit.Status,
		ActorID:    input.Actor.ID,
		OccurredAt: now,
	}

	if err := s.visitRepo.Create(ctx, visit, tr); err != nil {
		if errors.Is(err, out.ErrDuplicateRequest) {
			metrics.TransitionsDeduplicated.Inc()
			stored, ferr := s.visitRepo.FindByRequestID(ctx, input.RequestID)
			if ferr != nil {
				return nil, ferr
			}
			return in.NewVisitView(stored), nil
		}
		var cErr *domain.ConflictError
		if errors.As(err, &cErr) {
			metrics.TransitionsRejected.WithLabelValues(domain.ActionStartJourney, rejectReason(err)).Inc()
			return nil, err
		}
		s.log.Error(logger.Entry{
			Action:  "create_visit_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"job_id":      input.JobID,
				"engineer_id": input.Actor.ID,
			},
		})
		return nil, fmt.Errorf("create visit: %w", err)
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionStartJourney).Inc()
	s.log.Info(logger.Entry{
		Action:  "visit_started",
		Message: visit.JobID,
		VisitID: visit.ID,
		Additional: map[string]any{
			"engineer_id": input.Actor.ID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventVisitStarted, "Journey started", visit)

	return in.NewVisitView(visit), nil
}
