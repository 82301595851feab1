package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const testEngineerID = "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"

type stub[I any, O any] struct {
	got   I
	calls int
	out   O
	err   error
}

func (s *stub[I, O]) Execute(_ context.Context, input I) (O, error) {
	s.got = input
	s.calls++
	return s.out, s.err
}

type fixture struct {
	record  *stub[in.RecordSampleInput, *in.SampleView]
	latest  *stub[in.GetLatestInput, *in.SampleView]
	history *stub[in.GetHistoryInput, *in.GetHistoryOutput]
	mux     *http.ServeMux
}

func newFixture() *fixture {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	view := &in.SampleView{
		ID:         "9a6bb276-64ca-4f10-bc55-222222222222",
		EngineerID: testEngineerID,
		Latitude:   51.5007,
		Longitude:  -0.1246,
		RecordedAt: now,
		ReceivedAt: now,
	}

	f := &fixture{
		record:  &stub[in.RecordSampleInput, *in.SampleView]{out: view},
		latest:  &stub[in.GetLatestInput, *in.SampleView]{out: view},
		history: &stub[in.GetHistoryInput, *in.GetHistoryOutput]{out: &in.GetHistoryOutput{}},
	}

	h := NewHTTPHandler(f.record, f.latest, f.history, NewEngineerLimiter(), logger.NewLogger("location_transport_test"))

	f.mux = http.NewServeMux()
	h.RegisterRoutes(f.mux, fakeAuth(testEngineerID, auth.RoleEngineer))
	return f
}

func fakeAuth(userID, role string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor := auth.Actor{ID: userID, Email: "t@example.com", Role: role}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		}
	}
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRecordSampleEndpoint(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodPost, "/location",
		`{"latitude":51.5007,"longitude":-0.1246,"speedKmh":32.5}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testEngineerID, f.record.got.Actor.ID)
	assert.Equal(t, 51.5007, f.record.got.Latitude)
	require.NotNil(t, f.record.got.SpeedKmh)
	assert.Equal(t, 32.5, *f.record.got.SpeedKmh)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "engineerId")
	assert.NotContains(t, body, "engineer_id")
}

func TestRecordSampleRequiresBody(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodPost, "/location", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.record.calls)
}

func TestRecordSampleThrottledAfterBurst(t *testing.T) {
	f := newFixture()

	for i := 0; i < sampleBurst; i++ {
		rec := doRequest(t, f.mux, http.MethodPost, "/location",
			`{"latitude":51.5,"longitude":-0.12}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, f.mux, http.MethodPost, "/location",
		`{"latitude":51.5,"longitude":-0.12}`)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, sampleBurst, f.record.calls)
}

func TestGetLatestEndpoint(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodGet, "/engineers/"+testEngineerID+"/location", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testEngineerID, f.latest.got.EngineerID)
}

func TestGetLatestMalformedIDIsNotFound(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodGet, "/engineers/nope/location", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, f.latest.calls)
}

func TestGetLatestNoSamplesIsNotFound(t *testing.T) {
	f := newFixture()
	f.latest.out = nil
	f.latest.err = domain.ErrSampleNotFound

	rec := doRequest(t, f.mux, http.MethodGet, "/engineers/"+testEngineerID+"/location", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistoryParsesWindow(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodGet,
		"/engineers/"+testEngineerID+"/location/history?from=2025-03-10T00:00:00Z&to=2025-03-10T23:59:59Z", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), f.history.got.From)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC), f.history.got.To)
}

func TestGetHistoryRejectsBadTimestamp(t *testing.T) {
	f := newFixture()

	rec := doRequest(t, f.mux, http.MethodGet,
		"/engineers/"+testEngineerID+"/location/history?from=yesterday", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.history.calls)
}

func TestForeignLedgerForbidden(t *testing.T) {
	f := newFixture()
	f.latest.out = nil
	f.latest.err = &domain.AuthorizationError{Reason: "cannot read another engineer's location"}

	rec := doRequest(t, f.mux, http.MethodGet, "/engineers/"+testEngineerID+"/location", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
