package in_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/mq"
	"github.com/phgsc/field-service-management-sub000/internal/shared/ws"
)

// feedMessage is the envelope relayed to connected admin dashboards.
type feedMessage struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// visitEventBody is the slice of the published event the feed logs.
type visitEventBody struct {
	VisitID   string `json:"visit_id"`
	EventType string `json:"event_type"`
}

// VisitFeedConsumer relays visit lifecycle events to admin dashboards over
// WebSocket.
type VisitFeedConsumer struct {
	mqConn *mq.RabbitMQ
	hub    *ws.Hub
	log    *logger.Logger
}

// NewVisitFeedConsumer creates the consumer.
func NewVisitFeedConsumer(mqConn *mq.RabbitMQ, hub *ws.Hub, log *logger.Logger) *VisitFeedConsumer {
	return &VisitFeedConsumer{
		mqConn: mqConn,
		hub:    hub,
		log:    log,
	}
}

// Start consumes visit events until ctx is cancelled. Each instance gets
// its own copy of the stream through an exclusive queue, leaving the
// durable per-event queues untouched.
func (c *VisitFeedConsumer) Start(ctx context.Context) error {
	ch := c.mqConn.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	queue, err := ch.QueueDeclare(
		"",    // name, broker-generated
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("declare feed queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "visit.*", mq.VisitTopicExchange, false, nil); err != nil {
		return fmt.Errorf("bind feed queue: %w", err)
	}

	msgs, err := ch.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume feed queue: %w", err)
	}

	c.log.Info(logger.Entry{
		Action:  "visit_feed_started",
		Message: fmt.Sprintf("listening on %s (queue: %s)", mq.VisitTopicExchange, queue.Name),
	})

	for {
		select {
		case <-ctx.Done():
			c.log.Info(logger.Entry{Action: "visit_feed_stopping", Message: "context cancelled"})
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn(logger.Entry{Action: "visit_feed_channel_closed", Message: "message channel closed"})
				return fmt.Errorf("message channel closed")
			}

			if err := c.relay(msg); err != nil {
				c.log.Error(logger.Entry{
					Action:  "visit_feed_relay_failed",
					Message: err.Error(),
					Error:   &logger.ErrObj{Msg: err.Error()},
				})
				// drop, a malformed event will not parse on redelivery either
				_ = msg.Nack(false, false)
			} else {
				_ = msg.Ack(false)
			}
		}
	}
}

func (c *VisitFeedConsumer) relay(msg amqp.Delivery) error {
	var body visitEventBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return fmt.Errorf("parse visit event: %w", err)
	}

	c.log.Debug(logger.Entry{
		Action:  "visit_event_received",
		Message: fmt.Sprintf("event=%s visit=%s", msg.RoutingKey, body.VisitID),
		VisitID: body.VisitID,
	})

	return c.hub.SendToRoleJSON(auth.RoleAdmin, feedMessage{
		Type:  "visit_event",
		Event: msg.RoutingKey,
		Data:  json.RawMessage(msg.Body),
	})
}
