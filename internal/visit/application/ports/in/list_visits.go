package in

import "context"

// ListVisitsInput lists visits. Admins see every visit and may filter by
// UserID; engineers see their own visits plus collaborations, regardless of
// the filter.
type ListVisitsInput struct {
	Actor  Actor
	UserID string
}

// ListVisitsOutput carries the result page.
type ListVisitsOutput struct {
	Visits []*VisitView `json:"visits"`
	Count  int          `json:"count"`
}

type ListVisitsUseCase interface {
	Execute(ctx context.Context, input ListVisitsInput) (*ListVisitsOutput, error)
}
