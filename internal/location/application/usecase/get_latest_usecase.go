package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// GetLatestService implements GetLatestUseCase.
type GetLatestService struct {
	sampleRepo out.SampleRepository
	cache      out.LatestCache
	log        *logger.Logger
}

// NewGetLatestService creates the get-latest use case.
func NewGetLatestService(sampleRepo out.SampleRepository, cache out.LatestCache, log *logger.Logger) *GetLatestService {
	return &GetLatestService{
		sampleRepo: sampleRepo,
		cache:      cache,
		log:        log,
	}
}

// Execute returns the engineer's most recent position, preferring the cache.
func (s *GetLatestService) Execute(ctx context.Context, input in.GetLatestInput) (*in.SampleView, error) {
	if !input.Actor.IsAdmin && input.Actor.ID != input.EngineerID {
		return nil, &domain.AuthorizationError{Reason: "cannot read another engineer's location"}
	}

	cached, err := s.cache.Get(ctx, input.EngineerID)
	if err != nil {
		s.log.Warn(logger.Entry{
			Action:  "cache_get_latest_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	if cached != nil {
		return in.NewSampleView(cached), nil
	}

	sample, err := s.sampleRepo.FindLatest(ctx, input.EngineerID)
	if err != nil {
		if errors.Is(err, domain.ErrSampleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find latest sample: %w", err)
	}

	if err := s.cache.Put(ctx, sample); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "cache_latest_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	return in.NewSampleView(sample), nil
}
