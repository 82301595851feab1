package in

import "github.com/phgsc/field-service-management-sub000/internal/shared/user"

// UserView is the API representation of an account. The password hash never
// leaves the application layer.
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// NewUserView maps an account to its API representation.
func NewUserView(u *user.User) *UserView {
	return &UserView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive(),
	}
}
