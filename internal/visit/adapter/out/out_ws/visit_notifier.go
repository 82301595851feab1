package out_ws

import (
	"context"

	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/ws"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
)

// WsVisitNotifier pushes visit notifications over WebSocket.
type WsVisitNotifier struct {
	hub *ws.Hub
	log *logger.Logger
}

// NewWsVisitNotifier creates a new notifier.
func NewWsVisitNotifier(hub *ws.Hub, log *logger.Logger) *WsVisitNotifier {
	return &WsVisitNotifier{
		hub: hub,
		log: log,
	}
}

// NotifyEngineer sends a notification to one engineer's connection.
func (n *WsVisitNotifier) NotifyEngineer(ctx context.Context, engineerID string, notification out.VisitNotification) error {
	if err := n.hub.SendToUserJSON(engineerID, notification); err != nil {
		n.log.Error(logger.Entry{
			Action:  "notify_engineer_failed",
			Message: err.Error(),
			VisitID: notification.VisitID,
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"engineer_id": engineerID,
			},
		})
		return err
	}

	n.log.Debug(logger.Entry{
		Action:  "engineer_notified",
		Message: notification.Type,
		VisitID: notification.VisitID,
		Additional: map[string]any{
			"engineer_id": engineerID,
		},
	})

	return nil
}

// BroadcastVisitUpdate pushes the update to every connected admin.
func (n *WsVisitNotifier) BroadcastVisitUpdate(ctx context.Context, notification out.VisitNotification) error {
	if err := n.hub.SendToRoleJSON(auth.RoleAdmin, notification); err != nil {
		n.log.Error(logger.Entry{
			Action:  "broadcast_visit_update_failed",
			Message: err.Error(),
			VisitID: notification.VisitID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return err
	}

	n.log.Debug(logger.Entry{
		Action:  "visit_update_broadcasted",
		Message: notification.Type,
		VisitID: notification.VisitID,
	})

	return nil
}
