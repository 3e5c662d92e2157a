package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// HandleEvent consumes one domain event from the queue and records it in
// the audit log. Recording failures are returned so Asynq retries the task.
func HandleEvent(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseEventPayload(t)
	if err != nil {
		logger.Error().Err(err).Str("type", t.Type()).Msg("Malformed event payload")
		// Malformed payloads never become well-formed; drop instead of retrying
		return nil
	}

	event := &models.AuditEvent{
		Source: payload.Source,
		Type:   t.Type(),
		Detail: string(payload.Detail),
	}
	if err := db.WithContext(ctx).Create(event).Error; err != nil {
		logger.Error().Err(err).Str("type", t.Type()).Msg("Failed to record event")
		return err
	}

	logger.Info().
		Str("type", t.Type()).
		Str("source", payload.Source).
		RawJSON("detail", payload.Detail).
		Msg("Domain event recorded")

	return nil
}
