package domain

// Status is the closed set of visit lifecycle states.
type Status string

const (
	StatusNotStarted    Status = "NOT_STARTED"
	StatusOnRoute       Status = "ON_ROUTE"
	StatusInService     Status = "IN_SERVICE"
	StatusCompleted     Status = "COMPLETED"
	StatusPausedNextDay Status = "PAUSED_NEXT_DAY"
	StatusBlocked       Status = "BLOCKED"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusOnRoute, StatusInService,
		StatusCompleted, StatusPausedNextDay, StatusBlocked:
		return true
	}
	return false
}

// Active reports whether the status occupies the engineer: at most one visit
// per engineer may be active at a time.
func (s Status) Active() bool {
	return s == StatusOnRoute || s == StatusInService
}

// PauseReason selects which paused state a pause request targets.
type PauseReason string

const (
	PauseNextDay PauseReason = "next_day"
	PauseBlocked PauseReason = "blocked"
)

func (r PauseReason) Valid() bool {
	return r == PauseNextDay || r == PauseBlocked
}

// ResumeTarget selects which phase a resume re-enters.
type ResumeTarget string

const (
	ResumeJourney ResumeTarget = "journey"
	ResumeService ResumeTarget = "service"
)

func (t ResumeTarget) Valid() bool {
	return t == ResumeJourney || t == ResumeService
}
