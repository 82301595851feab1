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

// locationSampleBody is the slice of the published sample the feed logs.
type locationSampleBody struct {
	EngineerID string `json:"engineer_id"`
}

// LocationFeedConsumer relays ledger samples to admin dashboards over
// WebSocket so the map follows engineers live.
type LocationFeedConsumer struct {
	mqConn *mq.RabbitMQ
	hub    *ws.Hub
	log    *logger.Logger
}

// NewLocationFeedConsumer creates the consumer.
func NewLocationFeedConsumer(mqConn *mq.RabbitMQ, hub *ws.Hub, log *logger.Logger) *LocationFeedConsumer {
	return &LocationFeedConsumer{
		mqConn: mqConn,
		hub:    hub,
		log:    log,
	}
}

// Start consumes the dispatch broadcast queue until ctx is cancelled.
func (c *LocationFeedConsumer) Start(ctx context.Context) error {
	ch := c.mqConn.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	msgs, err := ch.Consume(
		mq.LocationBroadcastQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", mq.LocationBroadcastQueue, err)
	}

	c.log.Info(logger.Entry{
		Action:  "location_feed_started",
		Message: fmt.Sprintf("listening on %s", mq.LocationBroadcastQueue),
	})

	for {
		select {
		case <-ctx.Done():
			c.log.Info(logger.Entry{Action: "location_feed_stopping", Message: "context cancelled"})
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn(logger.Entry{Action: "location_feed_channel_closed", Message: "message channel closed"})
				return fmt.Errorf("message channel closed")
			}

			if err := c.relay(msg); err != nil {
				c.log.Error(logger.Entry{
					Action:  "location_feed_relay_failed",
					Message: err.Error(),
					Error:   &logger.ErrObj{Msg: err.Error()},
				})
				// drop, a malformed sample will not parse on redelivery either
				_ = msg.Nack(false, false)
			} else {
				_ = msg.Ack(false)
			}
		}
	}
}

func (c *LocationFeedConsumer) relay(msg amqp.Delivery) error {
	var body locationSampleBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return fmt.Errorf("parse location sample: %w", err)
	}

	c.log.Debug(logger.Entry{
		Action:  "location_sample_received",
		Message: fmt.Sprintf("engineer=%s", body.EngineerID),
	})

	return c.hub.SendToRoleJSON(auth.RoleAdmin, feedMessage{
		Type: "location_update",
		Data: json.RawMessage(msg.Body),
	})
}
