package out

import "context"

// VisitNotification is a WebSocket push about a visit.
type VisitNotification struct {
	Type    string         `json:"type"`
	VisitID string         `json:"visit_id"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// VisitNotifier delivers WebSocket pushes. Delivery is best-effort.
type VisitNotifier interface {
	// NotifyEngineer pushes to every connection of one engineer.
	NotifyEngineer(ctx context.Context, engineerID string, n VisitNotification) error

	// BroadcastVisitUpdate pushes to every connected admin.
	BroadcastVisitUpdate(ctx context.Context, n VisitNotification) error
}
