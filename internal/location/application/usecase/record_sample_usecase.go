package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
)

// RecordSampleService implements RecordSampleUseCase.
type RecordSampleService struct {
	sampleRepo out.SampleRepository
	cache      out.LatestCache
	publisher  out.SamplePublisher
	log        *logger.Logger
}

// NewRecordSampleService creates the record-sample use case.
func NewRecordSampleService(
	sampleRepo out.SampleRepository,
	cache out.LatestCache,
	publisher out.SamplePublisher,
	log *logger.Logger,
) *RecordSampleService {
	return &RecordSampleService{
		sampleRepo: sampleRepo,
		cache:      cache,
		publisher:  publisher,
		log:        log,
	}
}

// Execute appends a sample to the caller's ledger. A replayed sample id is
// acknowledged without writing, publishing, or counting a second time.
func (s *RecordSampleService) Execute(ctx context.Context, input in.RecordSampleInput) (*in.SampleView, error) {
	sampleID := input.SampleID
	if sampleID == "" {
		sampleID = utils.NewUUID()
	} else if _, err := uuid.Parse(sampleID); err != nil {
		return nil, &domain.ValidationError{Field: "sampleId", Reason: "must be a UUID"}
	}

	now := time.Now().UTC()
	var recordedAt time.Time
	if input.Timestamp != nil {
		recordedAt = *input.Timestamp
	}

	sample, err := domain.NewSample(sampleID, input.Actor.ID, input.Latitude, input.Longitude, recordedAt, now)
	if err != nil {
		return nil, err
	}
	sample.AccuracyMeters = input.AccuracyMeters
	sample.SpeedKmh = input.SpeedKmh
	sample.HeadingDegrees = input.HeadingDegrees

	inserted, err := s.sampleRepo.Insert(ctx, sample)
	if err != nil {
		if errors.Is(err, domain.ErrEngineerNotFound) {
			return nil, err
		}
		s.log.Error(logger.Entry{
			Action:  "record_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"engineer_id": input.Actor.ID,
			},
		})
		return nil, fmt.Errorf("insert sample: %w", err)
	}

	if !inserted {
		s.log.Debug(logger.Entry{
			Action:  "sample_replay_ignored",
			Message: sampleID,
			Additional: map[string]any{
				"engineer_id": input.Actor.ID,
			},
		})
		return in.NewSampleView(sample), nil
	}

	metrics.SamplesRecorded.Inc()

	if err := s.cache.Put(ctx, sample); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "cache_latest_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	if err := s.publisher.PublishSample(ctx, sample); err != nil {
		s.log.Error(logger.Entry{
			Action:  "publish_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	return in.NewSampleView(sample), nil
}
