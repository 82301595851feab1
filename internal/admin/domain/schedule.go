package domain

import "time"

// Schedule entry types. Entries are plain calendar data; they carry no
// state machine.
const (
	EntryAppointment = "APPOINTMENT"
	EntryTimeOff     = "TIME_OFF"
	EntryTraining    = "TRAINING"
)

// ValidEntryType reports whether t is a known entry type.
func ValidEntryType(t string) bool {
	switch t {
	case EntryAppointment, EntryTimeOff, EntryTraining:
		return true
	}
	return false
}

// ScheduleEntry is an externally managed calendar item for one engineer,
// shown alongside the visit phase events.
type ScheduleEntry struct {
	ID         string    `json:"id" db:"id"`
	EngineerID string    `json:"engineer_id" db:"engineer_id"`
	EntryType  string    `json:"entry_type" db:"entry_type"`
	Title      string    `json:"title" db:"title"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time `json:"ends_at" db:"ends_at"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewScheduleEntry validates and builds an entry. An empty entry type
// defaults to APPOINTMENT.
func NewScheduleEntry(id, engineerID, entryType, title string, startsAt, endsAt time.Time, createdBy string, now time.Time) (*ScheduleEntry, error) {
	if engineerID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "required"}
	}
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "required"}
	}
	if entryType == "" {
		entryType = EntryAppointment
	}
	if !ValidEntryType(entryType) {
		return nil, &ValidationError{Field: "entryType", Reason: "unknown entry type"}
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		return nil, &ValidationError{Field: "startsAt", Reason: "startsAt and endsAt are required"}
	}
	if !endsAt.After(startsAt) {
		return nil, &ValidationError{Field: "endsAt", Reason: "must be after startsAt"}
	}

	return &ScheduleEntry{
		ID:         id,
		EngineerID: engineerID,
		EntryType:  entryType,
		Title:      title,
		StartsAt:   startsAt.UTC(),
		EndsAt:     endsAt.UTC(),
		CreatedBy:  createdBy,
		CreatedAt:  now.UTC(),
	}, nil
}
