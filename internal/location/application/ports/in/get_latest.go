package in

import "context"

// GetLatestInput fetches the most recent sample for one engineer. Engineers
// may read their own position; admins may read anyone's.
type GetLatestInput struct {
	Actor      Actor
	EngineerID string
}

type GetLatestUseCase interface {
	Execute(ctx context.Context, input GetLatestInput) (*SampleView, error)
}
