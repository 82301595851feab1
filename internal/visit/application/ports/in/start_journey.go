package in

import "context"

// StartJourneyInput creates a visit and opens its journey phase.
type StartJourneyInput struct {
	Actor     Actor  `json:"-"`
	RequestID string `json:"-"`
	JobID     string `json:"jobId"`
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// StartJourneyUseCase creates the visit record at the start-journey
// transition and enforces the one-active-visit rule.
type StartJourneyUseCase interface {
	Execute(ctx context.Context, input StartJourneyInput) (*VisitView, error)
}
