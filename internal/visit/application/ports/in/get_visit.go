package in

import "context"

// GetVisitInput reads one visit. Engineers may only read visits they own or
// collaborate on; admins may read any.
type GetVisitInput struct {
	Actor   Actor
	VisitID string
}

type GetVisitUseCase interface {
	Execute(ctx context.Context, input GetVisitInput) (*VisitView, error)
}
