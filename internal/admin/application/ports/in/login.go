package in

import "context"

// LoginInput carries the credentials presented by a client.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginOutput is the issued token plus the account it belongs to.
type LoginOutput struct {
	Token string    `json:"token"`
	User  *UserView `json:"user"`
}

// LoginUseCase checks credentials and issues a signed token. It answers
// with the same error for a wrong password and an unknown email.
type LoginUseCase interface {
	Execute(ctx context.Context, input LoginInput) (*LoginOutput, error)
}
