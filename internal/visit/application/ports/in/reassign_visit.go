package in

import "context"

// ReassignVisitInput hands the visit to another engineer without touching
// its status. Admin only.
type ReassignVisitInput struct {
	Actor         Actor  `json:"-"`
	RequestID     string `json:"-"`
	VisitID       string `json:"-"`
	NewEngineerID string `json:"newEngineerId"`
}

type ReassignVisitUseCase interface {
	Execute(ctx context.Context, input ReassignVisitInput) (*VisitView, error)
}
