package mq

import (
	"context"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// Exchange and queue names shared by publishers and consumers.
const (
	VisitTopicExchange     = "visit_topic"
	LocationFanoutExchange = "location_fanout"
	LocationBroadcastQueue = "location.broadcast"
)

// VisitQueues lists the durable queues bound to visit_topic. Queue name and
// routing key are identical.
var VisitQueues = []string{
	"visit.started",
	"visit.service_started",
	"visit.completed",
	"visit.paused",
	"visit.blocked",
	"visit.resumed",
	"visit.reassigned",
	"visit.collaborator_joined",
}

// SetupTopology declares all exchanges, queues and bindings.
// Declarations are idempotent, so every service runs this at startup.
func SetupTopology(ctx context.Context, mq *RabbitMQ, log *logger.Logger) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	if err := ch.ExchangeDeclare(
		VisitTopicExchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", VisitTopicExchange, err)
	}

	if err := ch.ExchangeDeclare(
		LocationFanoutExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", LocationFanoutExchange, err)
	}

	for _, q := range VisitQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		routingKey := q // visit.started, visit.completed, etc.
		if err := ch.QueueBind(q, routingKey, VisitTopicExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	// Shared broadcast queue for the dispatch feed. Consumers that need their
	// own copy of the stream declare exclusive queues at consume time.
	if _, err := ch.QueueDeclare(LocationBroadcastQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", LocationBroadcastQueue, err)
	}
	if err := ch.QueueBind(LocationBroadcastQueue, "", LocationFanoutExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", LocationBroadcastQueue, err)
	}

	log.Info(logger.Entry{
		Action:  "topology_setup_complete",
		Message: "all exchanges and queues created",
	})

	return nil
}
