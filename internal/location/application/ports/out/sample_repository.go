package out

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
)

// SampleRepository persists the append-only location ledger.
type SampleRepository interface {
	// Insert appends the sample. A replayed sample id is a no-op; the
	// returned flag reports whether a new row was written.
	Insert(ctx context.Context, sample *domain.Sample) (bool, error)

	// FindLatest returns the engineer's most recent sample by recorded time,
	// or domain.ErrSampleNotFound.
	FindLatest(ctx context.Context, engineerID string) (*domain.Sample, error)

	// ListRange returns samples recorded in [from, to], ascending.
	ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]*domain.Sample, error)
}

// LatestCache holds the most recent sample per engineer for cheap reads.
type LatestCache interface {
	// Put stores the sample if it is newer than the cached one.
	Put(ctx context.Context, sample *domain.Sample) error

	// Get returns the cached sample, or nil on a miss.
	Get(ctx context.Context, engineerID string) (*domain.Sample, error)
}

// SamplePublisher fans accepted samples out to downstream consumers.
type SamplePublisher interface {
	PublishSample(ctx context.Context, sample *domain.Sample) error
}
