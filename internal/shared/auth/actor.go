package auth

import "context"

// Actor is the authenticated caller attached to a request context by the
// JWT middleware.
type Actor struct {
	ID    string
	Email string
	Role  string
}

const (
	RoleEngineer = "ENGINEER"
	RoleAdmin    = "ADMIN"
)

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type contextKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the actor stored by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
