package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
)

// LoginService implements LoginUseCase.
type LoginService struct {
	users user.Repository
	jwt   *auth.JWTService
	log   *logger.Logger
}

// NewLoginService creates the login use case.
func NewLoginService(users user.Repository, jwt *auth.JWTService, log *logger.Logger) *LoginService {
	return &LoginService{users: users, jwt: jwt, log: log}
}

// Execute checks the credentials and issues a token. Unknown emails, wrong
// passwords and disabled accounts all fail with ErrInvalidCredentials.
func (s *LoginService) Execute(ctx context.Context, input in.LoginInput) (*in.LoginOutput, error) {
	if input.Email == "" {
		return nil, &domain.ValidationError{Field: "email", Reason: "required"}
	}
	if input.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "required"}
	}

	u, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.log.Error(logger.Entry{
			Action:  "login_lookup_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		s.log.Warn(logger.Entry{
			Action:     "login_rejected",
			Message:    "wrong password",
			Additional: map[string]any{"user_id": u.ID},
		})
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsActive() {
		s.log.Warn(logger.Entry{
			Action:     "login_rejected",
			Message:    "account disabled",
			Additional: map[string]any{"user_id": u.ID},
		})
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "token_generation_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:     "login_succeeded",
		Message:    "user logged in",
		Additional: map[string]any{"user_id": u.ID, "role": u.Role},
	})
	return &in.LoginOutput{Token: token, User: in.NewUserView(u)}, nil
}
