package workers

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

func TestHandleEventRecordsAudit(t *testing.T) {
	db := newTestDB(t)

	task, err := tasks.NewEventTask(tasks.TypeBookBorrowed, map[string]string{
		"book_name": "The Go Programming Language",
		"user":      "vera@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, HandleEvent(context.Background(), task, db, zerolog.Nop()))

	var event models.AuditEvent
	require.NoError(t, db.First(&event).Error)
	require.Equal(t, tasks.TypeBookBorrowed, event.Type)
	require.Equal(t, tasks.EventSource, event.Source)
	require.Contains(t, event.Detail, "vera@example.com")
}

func TestHandleEventDropsMalformedPayload(t *testing.T) {
	db := newTestDB(t)

	task := asynq.NewTask(tasks.TypeBookAdded, []byte("{not json"))

	// No retry for garbage: the handler reports success and records nothing
	require.NoError(t, HandleEvent(context.Background(), task, db, zerolog.Nop()))

	var count int64
	require.NoError(t, db.Model(&models.AuditEvent{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}
