package domain

import (
	"math"
	"strings"
	"time"
)

// Phase holds the timing of one leg of a visit (journey or service).
// TotalMinutes is frozen when the phase closes. A pause freezes a partial
// total; a later resume stamps ResumedAt so the remaining segment accumulates
// on top of the frozen value.
type Phase struct {
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	ResumedAt    *time.Time `json:"resumed_at,omitempty" db:"resumed_at"`
	TotalMinutes *int       `json:"total_minutes,omitempty" db:"total_minutes"`
}

// anchor is the instant the currently running segment of the phase began.
func (p Phase) anchor() *time.Time {
	if p.ResumedAt != nil {
		return p.ResumedAt
	}
	return p.StartedAt
}

// minutesWorked returns the accumulated minutes of the phase if it closed at
// end, or nil when the phase has no timestamps to compute from.
func (p Phase) minutesWorked(end time.Time) *int {
	a := p.anchor()
	if a == nil {
		return nil
	}
	segment := int(math.Round(end.Sub(*a).Minutes()))
	if segment < 0 {
		segment = 0
	}
	total := segment
	if p.TotalMinutes != nil {
		total += *p.TotalMinutes
	}
	return &total
}

// BlockInfo records why and since when a visit is blocked.
type BlockInfo struct {
	Reason string    `json:"reason" db:"block_reason"`
	Since  time.Time `json:"since" db:"blocked_since"`
}

// DaysBlocked derives how many whole days the visit has been blocked.
// The value is never stored.
func (b *BlockInfo) DaysBlocked(now time.Time) int {
	if b == nil {
		return 0
	}
	days := int(now.Sub(b.Since).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Collaborator is an engineer granted write access to a visit they do not own.
type Collaborator struct {
	EngineerID string    `json:"engineer_id" db:"engineer_id"`
	Note       string    `json:"note,omitempty" db:"note"`
	JoinedAt   time.Time `json:"joined_at" db:"joined_at"`
}

// Visit is one engineer's assignment to a job site, tracked through its
// journey and service phases.
type Visit struct {
	ID            string         `json:"id" db:"id"`
	JobID         string         `json:"job_id" db:"job_id"`
	EngineerID    string         `json:"engineer_id" db:"engineer_id"`
	Status        Status         `json:"status" db:"status"`
	StartedAt     *time.Time     `json:"started_at,omitempty" db:"started_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty" db:"ended_at"`
	Journey       Phase          `json:"journey"`
	Service       Phase          `json:"service"`
	PausedFrom    Status         `json:"paused_from,omitempty" db:"paused_from"`
	Block         *BlockInfo     `json:"block,omitempty"`
	Latitude      string         `json:"latitude,omitempty" db:"latitude"`
	Longitude     string         `json:"longitude,omitempty" db:"longitude"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// NewVisit creates a visit and immediately opens its journey: the record is
// born at the startJourney transition. Coordinates are stored verbatim as the
// client sent them.
func NewVisit(id, jobID, engineerID, latitude, longitude string, now time.Time) (*Visit, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, &ValidationError{Field: "jobId", Reason: "must not be empty"}
	}
	v := &Visit{
		ID:         id,
		JobID:      strings.TrimSpace(jobID),
		EngineerID: engineerID,
		Status:     StatusNotStarted,
		Latitude:   strings.TrimSpace(latitude),
		Longitude:  strings.TrimSpace(longitude),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := v.StartJourney(now); err != nil {
		return nil, err
	}
	return v, nil
}

// StartJourney opens the journey phase of a not yet started visit.
func (v *Visit) StartJourney(now time.Time) error {
	if v.Status != StatusNotStarted {
		return &InvalidTransitionError{From: v.Status, Attempted: StatusOnRoute}
	}
	start := now
	v.StartedAt = &start
	v.Journey.StartedAt = &start
	v.Status = StatusOnRoute
	v.UpdatedAt = now
	return nil
}

// StartService closes the journey phase and opens the service phase.
// clientJourneyMinutes is trusted only when the journey carries no timestamps
// to compute from.
func (v *Visit) StartService(now time.Time, clientJourneyMinutes *int) error {
	if v.Status != StatusOnRoute {
		return &InvalidTransitionError{From: v.Status, Attempted: StatusInService}
	}
	end := now
	v.Journey.EndedAt = &end
	if total := v.Journey.minutesWorked(now); total != nil {
		v.Journey.TotalMinutes = total
	} else if clientJourneyMinutes != nil {
		v.Journey.TotalMinutes = clientJourneyMinutes
	}
	if v.Service.StartedAt == nil {
		v.Service.StartedAt = &end
	} else {
		// the journey was reopened after service already ran once
		v.Service.ResumedAt = &end
	}
	v.Status = StatusInService
	v.UpdatedAt = now
	return nil
}

// Complete closes the service phase and the visit. clientServiceMinutes is
// trusted only when the service phase carries no timestamps to compute from.
func (v *Visit) Complete(now time.Time, clientServiceMinutes *int) error {
	if v.Status != StatusInService {
		return &InvalidTransitionError{From: v.Status, Attempted: StatusCompleted}
	}
	end := now
	v.Service.EndedAt = &end
	if total := v.Service.minutesWorked(now); total != nil {
		v.Service.TotalMinutes = total
	} else if clientServiceMinutes != nil {
		v.Service.TotalMinutes = clientServiceMinutes
	}
	v.EndedAt = &end
	v.Status = StatusCompleted
	v.UpdatedAt = now
	return nil
}

// Pause leaves the active flow until the next day or until unblocked.
// The interrupted phase keeps a frozen partial total so a later resume
// continues counting instead of restarting.
func (v *Visit) Pause(reason PauseReason, blockReason string, now time.Time, clientServiceMinutes *int) error {
	if !reason.Valid() {
		return &ValidationError{Field: "reason", Reason: "must be next_day or blocked"}
	}
	if reason == PauseBlocked && strings.TrimSpace(blockReason) == "" {
		return &ValidationError{Field: "blockReason", Reason: "required when pausing as blocked"}
	}
	target := StatusPausedNextDay
	if reason == PauseBlocked {
		target = StatusBlocked
	}

	switch v.Status {
	case StatusOnRoute:
		if total := v.Journey.minutesWorked(now); total != nil {
			v.Journey.TotalMinutes = total
		}
	case StatusInService:
		if total := v.Service.minutesWorked(now); total != nil {
			v.Service.TotalMinutes = total
		} else if clientServiceMinutes != nil {
			v.Service.TotalMinutes = clientServiceMinutes
		}
	default:
		return &InvalidTransitionError{From: v.Status, Attempted: target}
	}

	v.PausedFrom = v.Status
	v.Status = target
	if reason == PauseBlocked {
		v.Block = &BlockInfo{Reason: strings.TrimSpace(blockReason), Since: now}
	}
	v.UpdatedAt = now
	return nil
}

// Resume re-enters the chosen phase after a next-day pause.
func (v *Visit) Resume(target ResumeTarget, now time.Time) error {
	if !target.Valid() {
		return &ValidationError{Field: "resumeType", Reason: "must be journey or service"}
	}
	if v.Status != StatusPausedNextDay {
		attempted := StatusOnRoute
		if target == ResumeService {
			attempted = StatusInService
		}
		return &InvalidTransitionError{From: v.Status, Attempted: attempted}
	}
	v.reopenPhase(target, now)
	v.PausedFrom = ""
	v.UpdatedAt = now
	return nil
}

// Unblock returns a blocked visit to the phase the block interrupted.
func (v *Visit) Unblock(now time.Time) error {
	if v.Status != StatusBlocked {
		attempted := v.PausedFrom
		if attempted == "" {
			attempted = StatusInService
		}
		return &InvalidTransitionError{From: v.Status, Attempted: attempted}
	}
	target := ResumeService
	if v.PausedFrom == StatusOnRoute {
		target = ResumeJourney
	}
	v.reopenPhase(target, now)
	v.Block = nil
	v.PausedFrom = ""
	v.UpdatedAt = now
	return nil
}

func (v *Visit) reopenPhase(target ResumeTarget, now time.Time) {
	t := now
	switch target {
	case ResumeJourney:
		if v.Journey.StartedAt == nil {
			v.Journey.StartedAt = &t
		} else {
			v.Journey.ResumedAt = &t
		}
		v.Journey.EndedAt = nil
		v.Status = StatusOnRoute
	case ResumeService:
		if v.Journey.StartedAt != nil && v.Journey.EndedAt == nil {
			// the pause interrupted the journey; entering service closes it
			v.Journey.EndedAt = &t
		}
		if v.Service.StartedAt == nil {
			v.Service.StartedAt = &t
		} else {
			v.Service.ResumedAt = &t
		}
		v.Service.EndedAt = nil
		v.Status = StatusInService
	}
}

// Reassign hands the visit to another engineer. Allowed in every status
// including COMPLETED; reassignment is the only mutation a completed record
// accepts.
func (v *Visit) Reassign(newEngineerID string, now time.Time) error {
	if strings.TrimSpace(newEngineerID) == "" {
		return &ValidationError{Field: "newEngineerId", Reason: "must not be empty"}
	}
	v.EngineerID = newEngineerID
	v.UpdatedAt = now
	return nil
}

// AddCollaborator attaches another engineer to an active visit. Membership
// has set semantics and is frozen once the visit completes.
func (v *Visit) AddCollaborator(engineerID, note string, now time.Time) error {
	if !v.Status.Active() {
		return &ConflictError{Reason: "visit is not active"}
	}
	if engineerID == v.EngineerID {
		return &ConflictError{Reason: "engineer already owns this visit"}
	}
	for _, c := range v.Collaborators {
		if c.EngineerID == engineerID {
			return &ConflictError{Reason: "engineer already collaborates on this visit"}
		}
	}
	v.Collaborators = append(v.Collaborators, Collaborator{
		EngineerID: engineerID,
		Note:       strings.TrimSpace(note),
		JoinedAt:   now,
	})
	v.UpdatedAt = now
	return nil
}

// CanBeActedOnBy reports whether the engineer owns or collaborates on the
// visit. Owner and collaborators are equally privileged for transitions.
func (v *Visit) CanBeActedOnBy(engineerID string) bool {
	if v.EngineerID == engineerID {
		return true
	}
	for _, c := range v.Collaborators {
		if c.EngineerID == engineerID {
			return true
		}
	}
	return false
}
