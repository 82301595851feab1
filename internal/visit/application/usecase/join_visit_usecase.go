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

// JoinVisitService implements JoinVisitUseCase.
type JoinVisitService struct {
	visitRepo out.VisitRepository
	publisher out.EventPublisher
	notifier  out.VisitNotifier
	log       *logger.Logger
}

// NewJoinVisitService creates the collaboration join use case.
func NewJoinVisitService(
	visitRepo out.VisitRepository,
	publisher out.EventPublisher,
	notifier out.VisitNotifier,
	log *logger.Logger,
) *JoinVisitService {
	return &JoinVisitService{
		visitRepo: visitRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Execute attaches the acting engineer to someone else's active visit.
// Joining counts against the one-active-visit rule like owning does.
func (s *JoinVisitService) Execute(ctx context.Context, input in.JoinVisitInput) (*in.VisitView, error) {
	if replay, err := replayedVisit(ctx, s.visitRepo, input.RequestID); err != nil {
		return nil, err
	} else if replay != nil {
		return in.NewVisitView(replay), nil
	}

	visit, err := s.visitRepo.FindByID(ctx, input.VisitID)
	if err != nil {
		return nil, err
	}

	busy, err := s.visitRepo.HasActiveVisit(ctx, input.Actor.ID, input.VisitID)
	if err != nil {
		return nil, fmt.Errorf("check active visit: %w", err)
	}
	if busy {
		err := &domain.ConflictError{Reason: "engineer already has an active visit"}
		metrics.TransitionsRejected.WithLabelValues(domain.ActionJoin, rejectReason(err)).Inc()
		return nil, err
	}

	now := nowUTC()
	if err := visit.AddCollaborator(input.Actor.ID, input.Note, now); err != nil {
		metrics.TransitionsRejected.WithLabelValues(domain.ActionJoin, rejectReason(err)).Inc()
		return nil, err
	}
	collaborator := visit.Collaborators[len(visit.Collaborators)-1]

	tr := &domain.Transition{
		VisitID:    visit.ID,
		RequestID:  input.RequestID,
		Action:     domain.ActionJoin,
		FromStatus: visit.Status,
		ToStatus:   visit.Status,
		ActorID:    input.Actor.ID,
		Detail:     input.Note,
		OccurredAt: now,
	}

	if err := s.visitRepo.AddCollaborator(ctx, visit.ID, collaborator, tr); err != nil {
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
			metrics.TransitionsRejected.WithLabelValues(domain.ActionJoin, rejectReason(err)).Inc()
			return nil, err
		}
		s.log.Error(logger.Entry{
			Action:  "join_visit_failed",
			Message: err.Error(),
			VisitID: visit.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("add collaborator: %w", err)
	}

	metrics.TransitionsApplied.WithLabelValues(domain.ActionJoin).Inc()
	s.log.Info(logger.Entry{
		Action:  "collaborator_joined",
		Message: input.Actor.ID,
		VisitID: visit.ID,
		Additional: map[string]any{
			"owner_id": visit.EngineerID,
		},
	})

	publishAndNotify(ctx, s.publisher, s.notifier, s.log, domain.EventCollaboratorJoined, "An engineer joined the visit", visit)

	return in.NewVisitView(visit), nil
}
