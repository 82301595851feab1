package out_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/mq"
)

// SamplePublisher fans accepted samples out to RabbitMQ.
type SamplePublisher struct {
	mq  *mq.RabbitMQ
	log *logger.Logger
}

// NewSamplePublisher creates a new publisher.
func NewSamplePublisher(mqConn *mq.RabbitMQ, log *logger.Logger) *SamplePublisher {
	return &SamplePublisher{
		mq:  mqConn,
		log: log,
	}
}

// PublishSample publishes to the location fanout exchange. Fanout ignores
// routing keys; consumers bind their own queues.
func (p *SamplePublisher) PublishSample(ctx context.Context, sample *domain.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	if err := p.mq.Publish(ctx, mq.LocationFanoutExchange, "", payload); err != nil {
		p.log.Error(logger.Entry{
			Action:  "publish_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"engineer_id": sample.EngineerID,
			},
		})
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	return nil
}
