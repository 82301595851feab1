package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const defaultHistoryWindow = 24 * time.Hour

// GetHistoryService implements GetHistoryUseCase.
type GetHistoryService struct {
	sampleRepo out.SampleRepository
	log        *logger.Logger
}

// NewGetHistoryService creates the get-history use case.
func NewGetHistoryService(sampleRepo out.SampleRepository, log *logger.Logger) *GetHistoryService {
	return &GetHistoryService{
		sampleRepo: sampleRepo,
		log:        log,
	}
}

// Execute lists the engineer's samples in the requested window, ascending.
func (s *GetHistoryService) Execute(ctx context.Context, input in.GetHistoryInput) (*in.GetHistoryOutput, error) {
	if !input.Actor.IsAdmin && input.Actor.ID != input.EngineerID {
		return nil, &domain.AuthorizationError{Reason: "cannot read another engineer's location"}
	}

	from, to := input.From, input.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultHistoryWindow)
	}
	if from.After(to) {
		return nil, &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}

	samples, err := s.sampleRepo.ListRange(ctx, input.EngineerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}

	output := &in.GetHistoryOutput{
		Samples: make([]*in.SampleView, 0, len(samples)),
		Count:   len(samples),
	}
	for _, s := range samples {
		output.Samples = append(output.Samples, in.NewSampleView(s))
	}
	return output, nil
}
