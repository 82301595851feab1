package domain

import "time"

// Calendar event kinds. Journey and service events are derived from visit
// phases and cannot be edited; schedule entries keep their entry type.
const (
	EventKindJourney = "journey"
	EventKindService = "service"
)

// CalendarEvent is one item in the merged dispatch calendar.
type CalendarEvent struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Kind     string     `json:"kind"`
	Title    string     `json:"title"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end,omitempty"`
	Editable bool       `json:"editable"`
	VisitID  string     `json:"visitId,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// VisitWindows is the phase read model the calendar derives events from.
type VisitWindows struct {
	VisitID          string
	JobID            string
	EngineerID       string
	Status           string
	JourneyStartedAt *time.Time
	JourneyEndedAt   *time.Time
	ServiceStartedAt *time.Time
	ServiceEndedAt   *time.Time
}

// Events expands the visit into read-only phase events. A phase that never
// started emits nothing; a running phase has a nil End.
func (v VisitWindows) Events() []CalendarEvent {
	var events []CalendarEvent

	if v.JourneyStartedAt != nil {
		events = append(events, CalendarEvent{
			ID:      "journey-" + v.VisitID,
			UserID:  v.EngineerID,
			Kind:    EventKindJourney,
			Title:   "Journey " + v.JobID,
			Start:   *v.JourneyStartedAt,
			End:     v.JourneyEndedAt,
			VisitID: v.VisitID,
			Status:  v.Status,
		})
	}

	if v.ServiceStartedAt != nil {
		events = append(events, CalendarEvent{
			ID:      "service-" + v.VisitID,
			UserID:  v.EngineerID,
			Kind:    EventKindService,
			Title:   "Service " + v.JobID,
			Start:   *v.ServiceStartedAt,
			End:     v.ServiceEndedAt,
			VisitID: v.VisitID,
			Status:  v.Status,
		})
	}

	return events
}

// EntryEvent maps a schedule entry into the merged feed.
func EntryEvent(e *ScheduleEntry) CalendarEvent {
	end := e.EndsAt
	return CalendarEvent{
		ID:       e.ID,
		UserID:   e.EngineerID,
		Kind:     e.EntryType,
		Title:    e.Title,
		Start:    e.StartsAt,
		End:      &end,
		Editable: true,
	}
}
