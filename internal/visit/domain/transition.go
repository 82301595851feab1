package domain

import "time"

// Transition action names recorded in the audit history.
const (
	ActionStartJourney = "start_journey"
	ActionStartService = "start_service"
	ActionComplete     = "complete"
	ActionPause        = "pause"
	ActionResume       = "resume"
	ActionUnblock      = "unblock"
	ActionReassign     = "reassign"
	ActionJoin         = "join"
)

// Transition is one row of a visit's audit history. RequestID carries the
// client idempotency key when one was sent; a repeated key means the request
// is a replay and the stored outcome is returned instead of re-applying.
type Transition struct {
	VisitID       string    `json:"visit_id" db:"visit_id"`
	RequestID     string    `json:"request_id,omitempty" db:"request_id"`
	Action        string    `json:"action" db:"action"`
	FromStatus    Status    `json:"from_status" db:"from_status"`
	ToStatus      Status    `json:"to_status" db:"to_status"`
	ActorID       string    `json:"actor_id" db:"actor_id"`
	NewEngineerID string    `json:"new_engineer_id,omitempty" db:"new_engineer_id"`
	Detail        string    `json:"detail,omitempty" db:"detail"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
}
