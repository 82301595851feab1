package in

import "context"

// StartServiceInput marks arrival on site, closing the journey phase.
// TotalJourneyTime is the mobile stopwatch value, used only when the stored
// journey timestamps cannot produce a total.
type StartServiceInput struct {
	Actor            Actor  `json:"-"`
	RequestID        string `json:"-"`
	VisitID          string `json:"-"`
	TotalJourneyTime *int   `json:"totalJourneyTime,omitempty"`
}

type StartServiceUseCase interface {
	Execute(ctx context.Context, input StartServiceInput) (*VisitView, error)
}
