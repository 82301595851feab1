package usecase

import (
	"context"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
)

// ListEngineersService implements ListEngineersUseCase.
type ListEngineersService struct {
	users user.Repository
	log   *logger.Logger
}

// NewListEngineersService creates the engineer listing use case.
func NewListEngineersService(users user.Repository, log *logger.Logger) *ListEngineersService {
	return &ListEngineersService{users: users, log: log}
}

// Execute lists every engineer account for the dispatch screens.
func (s *ListEngineersService) Execute(ctx context.Context, input in.ListEngineersInput) (*in.ListEngineersOutput, error) {
	if !input.Actor.IsAdmin {
		return nil, &domain.AuthorizationError{Reason: "only admins can list engineers"}
	}

	engineers, err := s.users.ListByRole(ctx, user.RoleEngineer)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "list_engineers_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list engineers: %w", err)
	}

	views := make([]*in.UserView, 0, len(engineers))
	for _, u := range engineers {
		views = append(views, in.NewUserView(u))
	}
	return &in.ListEngineersOutput{Engineers: views, Count: len(views)}, nil
}
