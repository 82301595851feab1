package usecase

import (
	"context"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// ListVisitsService implements ListVisitsUseCase.
type ListVisitsService struct {
	visitRepo out.VisitRepository
	log       *logger.Logger
}

// NewListVisitsService creates the visit listing use case.
func NewListVisitsService(visitRepo out.VisitRepository, log *logger.Logger) *ListVisitsService {
	return &ListVisitsService{visitRepo: visitRepo, log: log}
}

// Execute lists visits. Admins see everything and may filter by engineer;
// engineers always get their own visits plus collaborations.
func (s *ListVisitsService) Execute(ctx context.Context, input in.ListVisitsInput) (*in.ListVisitsOutput, error) {
	var (
		visits []*domain.Visit
		err    error
	)
	if input.Actor.IsAdmin {
		visits, err = s.visitRepo.ListAll(ctx, input.UserID)
	} else {
		visits, err = s.visitRepo.ListForEngineer(ctx, input.Actor.ID)
	}
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "list_visits_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list visits: %w", err)
	}

	views := make([]*in.VisitView, 0, len(visits))
	for _, v := range visits {
		views = append(views, in.NewVisitView(v))
	}
	return &in.ListVisitsOutput{Visits: views, Count: len(views)}, nil
}
