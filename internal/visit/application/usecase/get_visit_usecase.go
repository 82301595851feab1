package usecase

import (
	"context"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// GetVisitService implements GetVisitUseCase.
type GetVisitService struct {
	visitRepo out.VisitRepository
	log       *logger.Logger
}

// NewGetVisitService creates the single-visit read use case.
func NewGetVisitService(visitRepo out.VisitRepository, log *logger.Logger) *GetVisitService {
	return &GetVisitService{visitRepo: visitRepo, log: log}
}

// Execute reads one visit, hiding it from engineers who are neither owner
// nor collaborator.
func (s *GetVisitService) Execute(ctx context.Context, input in.GetVisitInput) (*in.VisitView, error) {
	visit, err := s.visitRepo.FindByID(ctx, input.VisitID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin && !visit.CanBeActedOnBy(input.Actor.ID) {
		// do not leak existence of other engineers' visits
		return nil, domain.ErrVisitNotFound
	}
	return in.NewVisitView(visit), nil
}
