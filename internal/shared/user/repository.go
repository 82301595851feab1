package user

import "context"

// Repository is the persistence port for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role string) ([]*User, error)
	Exists(ctx context.Context, id string) (bool, error)
}
