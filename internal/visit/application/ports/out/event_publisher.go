package out

import (
	"context"

	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// EventPublisher pushes committed visit transitions to RabbitMQ. Publishing
// is best-effort: callers log failures and never fail the request over them.
type EventPublisher interface {
	PublishVisitEvent(ctx context.Context, event *domain.VisitEvent) error
}
