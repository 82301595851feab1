package in

import "context"

// ResumeVisitInput re-enters a paused visit the next day. NewEngineerID is
// an admin-only reassignment applied together with the resume.
type ResumeVisitInput struct {
	Actor         Actor  `json:"-"`
	RequestID     string `json:"-"`
	VisitID       string `json:"-"`
	ResumeType    string `json:"resumeType"`
	NewEngineerID string `json:"newEngineerId,omitempty"`
}

type ResumeVisitUseCase interface {
	Execute(ctx context.Context, input ResumeVisitInput) (*VisitView, error)
}
