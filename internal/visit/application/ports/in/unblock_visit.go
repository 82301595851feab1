package in

import "context"

// UnblockVisitInput returns a blocked visit to the phase the block
// interrupted. NewEngineerID is an admin-only reassignment applied together
// with the unblock.
type UnblockVisitInput struct {
	Actor         Actor  `json:"-"`
	RequestID     string `json:"-"`
	VisitID       string `json:"-"`
	NewEngineerID string `json:"newEngineerId,omitempty"`
}

type UnblockVisitUseCase interface {
	Execute(ctx context.Context, input UnblockVisitInput) (*VisitView, error)
}
