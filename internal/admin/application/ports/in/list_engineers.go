package in

import "context"

// ListEngineersInput lists engineer accounts for the dispatch screens.
type ListEngineersInput struct {
	Actor Actor
}

// ListEngineersOutput carries the result page.
type ListEngineersOutput struct {
	Engineers []*UserView `json:"engineers"`
	Count     int         `json:"count"`
}

type ListEngineersUseCase interface {
	Execute(ctx context.Context, input ListEngineersInput) (*ListEngineersOutput, error)
}
