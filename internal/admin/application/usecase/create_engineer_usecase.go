package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
)

const minPasswordLength = 8

// CreateEngineerService implements CreateEngineerUseCase.
type CreateEngineerService struct {
	users user.Repository
	log   *logger.Logger
}

// NewCreateEngineerService creates the engineer registration use case.
func NewCreateEngineerService(users user.Repository, log *logger.Logger) *CreateEngineerService {
	return &CreateEngineerService{users: users, log: log}
}

// Execute registers a new active engineer account.
func (s *CreateEngineerService) Execute(ctx context.Context, input in.CreateEngineerInput) (*in.UserView, error) {
	if !input.Actor.IsAdmin {
		return nil, &domain.AuthorizationError{Reason: "only admins can register engineers"}
	}

	email := user.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if len(input.Password) < minPasswordLength {
		return nil, &domain.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           utils.NewUUID(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         user.RoleEngineer,
		Status:       user.StatusActive,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, err
		}
		s.log.Error(logger.Entry{
			Action:  "create_engineer_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("create engineer: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:     "engineer_created",
		Message:    "engineer account registered",
		Additional: map[string]any{"user_id": u.ID, "created_by": input.Actor.ID},
	})
	return in.NewUserView(u), nil
}
