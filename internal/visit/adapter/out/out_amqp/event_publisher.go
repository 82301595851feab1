package out_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/mq"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// VisitEventPublisher publishes visit lifecycle events to RabbitMQ.
type VisitEventPublisher struct {
	mq  *mq.RabbitMQ
	log *logger.Logger
}

// NewVisitEventPublisher creates a new publisher.
func NewVisitEventPublisher(mqConn *mq.RabbitMQ, log *logger.Logger) *VisitEventPublisher {
	return &VisitEventPublisher{
		mq:  mqConn,
		log: log,
	}
}

// PublishVisitEvent publishes the event to the visit topic exchange. The
// event type doubles as the routing key.
func (p *VisitEventPublisher) PublishVisitEvent(ctx context.Context, event *domain.VisitEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal visit event: %w", err)
	}

	routingKey := getRoutingKey(event.EventType)

	if err := p.mq.Publish(ctx, mq.VisitTopicExchange, routingKey, payload); err != nil {
		p.log.Error(logger.Entry{
			Action:  "publish_visit_event_failed",
			Message: err.Error(),
			VisitID: event.VisitID,
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"event_type":  event.EventType,
				"routing_key": routingKey,
			},
		})
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.log.Debug(logger.Entry{
		Action:  "visit_event_published",
		Message: event.EventType,
		VisitID: event.VisitID,
		Additional: map[string]any{
			"routing_key": routingKey,
		},
	})

	return nil
}

// getRoutingKey validates the event type against the known set.
func getRoutingKey(eventType string) string {
	switch eventType {
	case domain.EventVisitStarted,
		domain.EventServiceStarted,
		domain.EventVisitCompleted,
		domain.EventVisitPaused,
		domain.EventVisitBlocked,
		domain.EventVisitResumed,
		domain.EventVisitReassigned,
		domain.EventCollaboratorJoined:
		return eventType
	default:
		return "visit.event"
	}
}
