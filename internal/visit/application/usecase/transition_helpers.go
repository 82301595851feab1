package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// replayedVisit resolves a request id the store has already recorded to the
// visit it belongs to. Returns nil when the id is new or empty.
func replayedVisit(ctx context.Context, repo out.VisitRepository, requestID string) (*domain.Visit, error) {
	if requestID == "" {
		return nil, nil
	}
	v, err := repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrVisitNotFound) {
			return nil, nil
		}
		return nil, err
	}
	metrics.TransitionsDeduplicated.Inc()
	return v, nil
}

// resolvePersist turns the failure modes of a conditional status update into
// their idempotent outcomes: a duplicate request id or a transition that
// already applied concurrently yields the stored record instead of an error.
func resolvePersist(ctx context.Context, repo out.VisitRepository, err error, visitID, requestID string, target domain.Status) (*domain.Visit, error) {
	switch {
	case errors.Is(err, out.ErrDuplicateRequest):
		metrics.TransitionsDeduplicated.Inc()
		return repo.FindByRequestID(ctx, requestID)
	case errors.Is(err, out.ErrStaleStatus):
		current, ferr := repo.FindByID(ctx, visitID)
		if ferr != nil {
			return nil, ferr
		}
		if current.Status == target {
			return current, nil
		}
		return nil, &domain.InvalidTransitionError{From: current.Status, Attempted: target}
	default:
		return nil, err
	}
}

// authorizeActor rejects actors who neither own nor collaborate on the visit.
// Admins pass every check.
func authorizeActor(visit *domain.Visit, actorID string, isAdmin bool) error {
	if isAdmin || visit.CanBeActedOnBy(actorID) {
		return nil
	}
	return &domain.AuthorizationError{Reason: "actor may not act on this visit"}
}

// rejectReason labels a refused transition for the rejection counter.
func rejectReason(err error) string {
	var (
		trErr *domain.InvalidTransitionError
		vErr  *domain.ValidationError
		aErr  *domain.AuthorizationError
		cErr  *domain.ConflictError
	)
	switch {
	case errors.As(err, &trErr):
		return "invalid_transition"
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &aErr):
		return "authorization"
	case errors.As(err, &cErr):
		return "conflict"
	default:
		return "other"
	}
}

// publishAndNotify pushes a committed transition to RabbitMQ and to the
// WebSocket connections of everyone attached to the visit. Failures are
// logged and swallowed: the transition is already committed.
func publishAndNotify(
	ctx context.Context,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
	eventType, message string,
	visit *domain.Visit,
) {
	event := domain.NewVisitEvent(utils.NewUUID(), eventType, visit)
	if err := publisher.PublishVisitEvent(ctx, event); err != nil {
		log.Error(logger.Entry{
			Action:  "publish_visit_event_failed",
			Message: err.Error(),
			VisitID: visit.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	n := out.VisitNotification{
		Type:    eventType,
		VisitID: visit.ID,
		Message: message,
		Data: map[string]any{
			"status": string(visit.Status),
			"job_id": visit.JobID,
		},
	}

	recipients := []string{visit.EngineerID}
	for _, c := range visit.Collaborators {
		recipients = append(recipients, c.EngineerID)
	}
	for _, engineerID := range recipients {
		if err := notifier.NotifyEngineer(ctx, engineerID, n); err != nil {
			log.Error(logger.Entry{
				Action:  "notify_engineer_failed",
				Message: err.Error(),
				VisitID: visit.ID,
				Error:   &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"engineer_id": engineerID,
				},
			})
		}
	}

	if err := notifier.BroadcastVisitUpdate(ctx, n); err != nil {
		log.Error(logger.Entry{
			Action:  "broadcast_visit_update_failed",
			Message: err.Error(),
			VisitID: visit.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}
