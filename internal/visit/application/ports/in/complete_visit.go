package in

import "context"

// CompleteVisitInput closes the service phase and the visit.
type CompleteVisitInput struct {
	Actor            Actor  `json:"-"`
	RequestID        string `json:"-"`
	VisitID          string `json:"-"`
	TotalServiceTime *int   `json:"totalServiceTime,omitempty"`
}

type CompleteVisitUseCase interface {
	Execute(ctx context.Context, input CompleteVisitInput) (*VisitView, error)
}
