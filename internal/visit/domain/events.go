package domain

import "time"

// Event types double as RabbitMQ routing keys on the visit topic exchange.
const (
	EventVisitStarted       = "visit.started"
	EventServiceStarted     = "visit.service_started"
	EventVisitCompleted     = "visit.completed"
	EventVisitPaused        = "visit.paused"
	EventVisitBlocked       = "visit.blocked"
	EventVisitResumed       = "visit.resumed"
	EventVisitReassigned    = "visit.reassigned"
	EventCollaboratorJoined = "visit.collaborator_joined"
)

// VisitEvent is the envelope published to RabbitMQ after a committed
// transition.
type VisitEvent struct {
	ID        string    `json:"id"`
	VisitID   string    `json:"visit_id"`
	EventType string    `json:"event_type"`
	EventData any       `json:"event_data"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVisitEvent wraps a visit snapshot for publishing.
func NewVisitEvent(id, eventType string, v *Visit) *VisitEvent {
	return &VisitEvent{
		ID:        id,
		VisitID:   v.ID,
		EventType: eventType,
		EventData: v,
		CreatedAt: time.Now(),
	}
}
