package in

import "context"

// PauseVisitInput leaves the active flow until the next day
// (reason "next_day") or until an admin unblocks (reason "blocked",
// requires BlockReason).
type PauseVisitInput struct {
	Actor            Actor  `json:"-"`
	RequestID        string `json:"-"`
	VisitID          string `json:"-"`
	Reason           string `json:"reason"`
	BlockReason      string `json:"blockReason,omitempty"`
	TotalServiceTime *int   `json:"totalServiceTime,omitempty"`
}

type PauseVisitUseCase interface {
	Execute(ctx context.Context, input PauseVisitInput) (*VisitView, error)
}
