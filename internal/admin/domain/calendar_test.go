package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestVisitWindowsEmitsBothPhases(t *testing.T) {
	w := VisitWindows{
		VisitID:          "v-1",
		JobID:            "JOB-42",
		EngineerID:       "eng-1",
		Status:           "COMPLETED",
		JourneyStartedAt: ptr(t0),
		JourneyEndedAt:   ptr(t0.Add(20 * time.Minute)),
		ServiceStartedAt: ptr(t0.Add(20 * time.Minute)),
		ServiceEndedAt:   ptr(t0.Add(65 * time.Minute)),
	}

	events := w.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "journey-v-1", events[0].ID)
	assert.Equal(t, EventKindJourney, events[0].Kind)
	assert.Equal(t, "Journey JOB-42", events[0].Title)
	assert.False(t, events[0].Editable)

	assert.Equal(t, "service-v-1", events[1].ID)
	assert.Equal(t, t0.Add(20*time.Minute), events[1].Start)
	require.NotNil(t, events[1].End)
	assert.Equal(t, t0.Add(65*time.Minute), *events[1].End)
}

func TestVisitWindowsSkipsUnstartedPhase(t *testing.T) {
	w := VisitWindows{
		VisitID:          "v-2",
		JobID:            "JOB-7",
		EngineerID:       "eng-1",
		Status:           "ON_ROUTE",
		JourneyStartedAt: ptr(t0),
	}

	events := w.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "journey-v-2", events[0].ID)
	assert.Nil(t, events[0].End)
}

func TestVisitWindowsEmptyVisit(t *testing.T) {
	w := VisitWindows{VisitID: "v-3", JobID: "JOB-9", EngineerID: "eng-1"}
	assert.Empty(t, w.Events())
}

func TestEntryEventIsEditable(t *testing.T) {
	entry, err := NewScheduleEntry("e-1", "eng-1", "", "Boiler inspection", t0, t0.Add(time.Hour), "adm-1", t0)
	require.NoError(t, err)
	assert.Equal(t, EntryAppointment, entry.EntryType)

	ev := EntryEvent(entry)
	assert.Equal(t, "e-1", ev.ID)
	assert.Equal(t, EntryAppointment, ev.Kind)
	assert.True(t, ev.Editable)
	require.NotNil(t, ev.End)
	assert.Equal(t, t0.Add(time.Hour), *ev.End)
}

func TestNewScheduleEntryValidation(t *testing.T) {
	cases := []struct {
		name  string
		mut   func() (*ScheduleEntry, error)
		field string
	}{
		{
			"missing engineer",
			func() (*ScheduleEntry, error) {
				return NewScheduleEntry("e", "", "", "x", t0, t0.Add(time.Hour), "a", t0)
			},
			"userId",
		},
		{
			"missing title",
			func() (*ScheduleEntry, error) {
				return NewScheduleEntry("e", "eng-1", "", "", t0, t0.Add(time.Hour), "a", t0)
			},
			"title",
		},
		{
			"unknown type",
			func() (*ScheduleEntry, error) {
				return NewScheduleEntry("e", "eng-1", "LUNCH", "x", t0, t0.Add(time.Hour), "a", t0)
			},
			"entryType",
		},
		{
			"inverted window",
			func() (*ScheduleEntry, error) {
				return NewScheduleEntry("e", "eng-1", "", "x", t0.Add(time.Hour), t0, "a", t0)
			},
			"endsAt",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.mut()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestDaysBlocked(t *testing.T) {
	b := BlockedVisit{Since: t0}

	assert.Equal(t, 0, b.DaysBlocked(t0.Add(5*time.Hour)))
	assert.Equal(t, 1, b.DaysBlocked(t0.Add(25*time.Hour)))
	assert.Equal(t, 3, b.DaysBlocked(t0.Add(78*time.Hour)))
	assert.Equal(t, 0, b.DaysBlocked(t0.Add(-time.Hour)))
}

func TestTotalDistanceKm(t *testing.T) {
	// 1 degree of longitude at the equator is roughly 111.3 km
	points := []TrackPoint{
		{Latitude: 0, Longitude: 0, RecordedAt: t0},
		{Latitude: 0, Longitude: 1, RecordedAt: t0.Add(time.Hour)},
		{Latitude: 0, Longitude: 2, RecordedAt: t0.Add(2 * time.Hour)},
	}

	km := TotalDistanceKm(points)
	assert.InDelta(t, 222.6, km, 1.0)

	assert.Zero(t, TotalDistanceKm(nil))
	assert.Zero(t, TotalDistanceKm(points[:1]))
}
