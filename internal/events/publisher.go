// Package events publishes domain events onto the task queue. Handlers
// run out-of-band in the worker binary; a publish failure is logged and
// never fails the user-facing operation that triggered it.
package events

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// Publisher enqueues domain events
type Publisher struct {
	client *asynq.Client
	logger zerolog.Logger
}

// NewPublisher creates a publisher backed by the given Asynq client
func NewPublisher(client *asynq.Client, logger zerolog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish enqueues one domain event. Best-effort: the queue being down
// must not block catalog or identity operations.
func (p *Publisher) Publish(eventType string, detail interface{}) {
	task, err := tasks.NewEventTask(eventType, detail)
	if err != nil {
		p.logger.Error().Err(err).Str("event", eventType).Msg("Failed to build event task")
		return
	}

	if _, err := p.client.Enqueue(task); err != nil {
		p.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
		return
	}

	p.logger.Debug().Str("event", eventType).Msg("Event published")
}
