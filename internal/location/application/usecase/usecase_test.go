package usecase

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

var (
	engineer = in.Actor{ID: "eng-1"}
	admin    = in.Actor{ID: "adm-1", IsAdmin: true}
)

type fakeSampleRepo struct {
	samples   map[string]*domain.Sample
	insertErr error
	findCalls int
}

func newFakeSampleRepo() *fakeSampleRepo {
	return &fakeSampleRepo{samples: make(map[string]*domain.Sample)}
}

func (r *fakeSampleRepo) Insert(_ context.Context, s *domain.Sample) (bool, error) {
	if r.insertErr != nil {
		return false, r.insertErr
	}
	if _, ok := r.samples[s.ID]; ok {
		return false, nil
	}
	cp := *s
	r.samples[s.ID] = &cp
	return true, nil
}

func (r *fakeSampleRepo) FindLatest(_ context.Context, engineerID string) (*domain.Sample, error) {
	r.findCalls++
	var latest *domain.Sample
	for _, s := range r.samples {
		if s.EngineerID != engineerID {
			continue
		}
		if s.NewerThan(latest) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrSampleNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeSampleRepo) ListRange(_ context.Context, engineerID string, from, to time.Time) ([]*domain.Sample, error) {
	var result []*domain.Sample
	for _, s := range r.samples {
		if s.EngineerID != engineerID {
			continue
		}
		if s.RecordedAt.Before(from) || s.RecordedAt.After(to) {
			continue
		}
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordedAt.Before(result[j].RecordedAt) })
	return result, nil
}

type fakeCache struct {
	m      map[string]*domain.Sample
	putErr error
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{m: make(map[string]*domain.Sample)}
}

func (c *fakeCache) Put(_ context.Context, s *domain.Sample) error {
	if c.putErr != nil {
		return c.putErr
	}
	if s.NewerThan(c.m[s.EngineerID]) {
		cp := *s
		c.m[s.EngineerID] = &cp
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, engineerID string) (*domain.Sample, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.m[engineerID], nil
}

type fakePublisher struct {
	published []*domain.Sample
	err       error
}

func (p *fakePublisher) PublishSample(_ context.Context, s *domain.Sample) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, s)
	return nil
}

type fixture struct {
	repo  *fakeSampleRepo
	cache *fakeCache
	pub   *fakePublisher
	log   *logger.Logger
}

func newFixture() *fixture {
	return &fixture{
		repo:  newFakeSampleRepo(),
		cache: newFakeCache(),
		pub:   &fakePublisher{},
		log:   logger.NewLogger("location_test"),
	}
}

func (f *fixture) record() *RecordSampleService {
	return NewRecordSampleService(f.repo, f.cache, f.pub, f.log)
}

func (f *fixture) latest() *GetLatestService {
	return NewGetLatestService(f.repo, f.cache, f.log)
}

func (f *fixture) history() *GetHistoryService {
	return NewGetHistoryService(f.repo, f.log)
}

func (f *fixture) seedSample(t *testing.T, engineerID string, recordedAt time.Time) *domain.Sample {
	t.Helper()
	s, err := domain.NewSample("", engineerID, 51.5, -0.12, recordedAt, recordedAt)
	require.NoError(t, err)
	s.ID = "seed-" + recordedAt.Format("150405.000")
	r := f.repo
	cp := *s
	r.samples[s.ID] = &cp
	return s
}

func TestRecordSampleHappyPath(t *testing.T) {
	f := newFixture()

	view, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  51.5007,
		Longitude: -0.1246,
	})

	require.NoError(t, err)
	assert.Equal(t, engineer.ID, view.EngineerID)
	assert.Equal(t, 51.5007, view.Latitude)
	assert.NotEmpty(t, view.ID)
	assert.False(t, view.RecordedAt.IsZero())
	assert.Equal(t, view.RecordedAt, view.ReceivedAt)

	require.Len(t, f.pub.published, 1)
	cached, _ := f.cache.Get(context.Background(), engineer.ID)
	require.NotNil(t, cached)
	assert.Equal(t, view.ID, cached.ID)
}

func TestRecordSampleUsesClientTimestamp(t *testing.T) {
	f := newFixture()
	captured := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Second)

	view, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  51.5,
		Longitude: -0.12,
		Timestamp: &captured,
	})

	require.NoError(t, err)
	assert.Equal(t, captured, view.RecordedAt)
	assert.True(t, view.ReceivedAt.After(view.RecordedAt))
}

func TestLatestSurvivesOutOfOrderArrival(t *testing.T) {
	f := newFixture()
	newer := time.Now().UTC().Add(-5 * time.Minute).Truncate(time.Second)
	older := newer.Add(-10 * time.Minute)

	first, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  51.5,
		Longitude: -0.12,
		Timestamp: &newer,
	})
	require.NoError(t, err)

	// a delayed upload lands after a fresher sample was already stored
	_, err = f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  51.4,
		Longitude: -0.11,
		Timestamp: &older,
	})
	require.NoError(t, err)

	view, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, view.ID)
	assert.Equal(t, newer, view.RecordedAt)
}

func TestRecordSampleReplayIsAcceptedOnce(t *testing.T) {
	f := newFixture()
	input := in.RecordSampleInput{
		Actor:     engineer,
		SampleID:  "7d4a4c36-8f0e-4f4e-9dcb-111111111111",
		Latitude:  51.5,
		Longitude: -0.12,
	}

	first, err := f.record().Execute(context.Background(), input)
	require.NoError(t, err)

	second, err := f.record().Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.pub.published, 1)
	assert.Len(t, f.repo.samples, 1)
}

func TestRecordSampleRejectsBadCoordinates(t *testing.T) {
	f := newFixture()

	_, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  91,
		Longitude: 0,
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "latitude", vErr.Field)
	assert.Empty(t, f.repo.samples)
}

func TestRecordSampleRejectsMalformedSampleID(t *testing.T) {
	f := newFixture()

	_, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		SampleID:  "not-a-uuid",
		Latitude:  51.5,
		Longitude: -0.12,
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sampleId", vErr.Field)
}

func TestRecordSampleSurvivesCacheAndPublishFailures(t *testing.T) {
	f := newFixture()
	f.cache.putErr = assert.AnError
	f.pub.err = assert.AnError

	view, err := f.record().Execute(context.Background(), in.RecordSampleInput{
		Actor:     engineer,
		Latitude:  51.5,
		Longitude: -0.12,
	})

	require.NoError(t, err)
	assert.NotNil(t, view)
	assert.Len(t, f.repo.samples, 1)
}

func TestGetLatestPrefersCache(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	cached, err := domain.NewSample("cached-id", engineer.ID, 50, 0, now, now)
	require.NoError(t, err)
	f.cache.m[engineer.ID] = cached

	view, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, "cached-id", view.ID)
	assert.Zero(t, f.repo.findCalls)
}

func TestGetLatestFallsBackToRepoAndBackfills(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	f.seedSample(t, engineer.ID, now.Add(-2*time.Hour))
	newest := f.seedSample(t, engineer.ID, now.Add(-1*time.Hour))

	view, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, newest.ID, view.ID)

	cached, _ := f.cache.Get(context.Background(), engineer.ID)
	require.NotNil(t, cached)
	assert.Equal(t, newest.ID, cached.ID)
}

func TestGetLatestNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
	})

	assert.ErrorIs(t, err, domain.ErrSampleNotFound)
}

func TestGetLatestForbidsForeignEngineer(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	f.seedSample(t, "eng-2", now)

	_, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      engineer,
		EngineerID: "eng-2",
	})

	var aErr *domain.AuthorizationError
	assert.ErrorAs(t, err, &aErr)

	view, err := f.latest().Execute(context.Background(), in.GetLatestInput{
		Actor:      admin,
		EngineerID: "eng-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "eng-2", view.EngineerID)
}

func TestGetHistoryAscendingWithinWindow(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	old := f.seedSample(t, engineer.ID, now.Add(-48*time.Hour))
	mid := f.seedSample(t, engineer.ID, now.Add(-3*time.Hour))
	recent := f.seedSample(t, engineer.ID, now.Add(-1*time.Hour))

	output, err := f.history().Execute(context.Background(), in.GetHistoryInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
	})

	require.NoError(t, err)
	require.Equal(t, 2, output.Count)
	assert.Equal(t, mid.ID, output.Samples[0].ID)
	assert.Equal(t, recent.ID, output.Samples[1].ID)

	wide, err := f.history().Execute(context.Background(), in.GetHistoryInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
		From:       now.Add(-72 * time.Hour),
		To:         now,
	})
	require.NoError(t, err)
	require.Equal(t, 3, wide.Count)
	assert.Equal(t, old.ID, wide.Samples[0].ID)
}

func TestGetHistoryRejectsInvertedWindow(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	_, err := f.history().Execute(context.Background(), in.GetHistoryInput{
		Actor:      engineer,
		EngineerID: engineer.ID,
		From:       now,
		To:         now.Add(-time.Hour),
	})

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
