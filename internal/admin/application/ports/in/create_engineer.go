package in

import "context"

// CreateEngineerInput registers a new engineer account.
type CreateEngineerInput struct {
	Actor    Actor  `json:"-"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateEngineerUseCase interface {
	Execute(ctx context.Context, input CreateEngineerInput) (*UserView, error)
}
