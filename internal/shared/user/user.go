package user

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleEngineer = "ENGINEER"
	RoleAdmin    = "ADMIN"

	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account in the system: an engineer carrying out visits or an
// admin steering them.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	Status       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsEngineer() bool {
	return u.Role == RoleEngineer
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// NormalizeEmail lowercases and trims an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the closed set.
func ValidRole(role string) bool {
	return role == RoleEngineer || role == RoleAdmin
}
