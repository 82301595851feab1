package in

import "context"

// JoinVisitInput attaches the acting engineer to another engineer's active
// visit as a collaborator.
type JoinVisitInput struct {
	Actor     Actor  `json:"-"`
	RequestID string `json:"-"`
	VisitID   string `json:"-"`
	Note      string `json:"note,omitempty"`
}

type JoinVisitUseCase interface {
	Execute(ctx context.Context, input JoinVisitInput) (*VisitView, error)
}
