package in

import (
	"context"
	"time"
)

// GetHistoryInput lists samples in [From, To] ascending by recorded time.
// A zero From/To defaults to the last 24 hours.
type GetHistoryInput struct {
	Actor      Actor
	EngineerID string
	From       time.Time
	To         time.Time
}

// GetHistoryOutput carries the result page.
type GetHistoryOutput struct {
	Samples []*SampleView `json:"samples"`
	Count   int           `json:"count"`
}

type GetHistoryUseCase interface {
	Execute(ctx context.Context, input GetHistoryInput) (*GetHistoryOutput, error)
}
