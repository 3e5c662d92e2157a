package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Domain event types published on the bookhub event bus
const (
	TypeUserCreated       = "event:UserCreated"
	TypeUserLoggedIn      = "event:UserLoggedIn"
	TypePasswordReset     = "event:PasswordReset"
	TypeBookAdded         = "event:BookAdded"
	TypeBookDeleted       = "event:BookDeleted"
	TypeBookBorrowed      = "event:BookBorrowed"
	TypeBookReturned      = "event:BookReturned"
	TypeBookOverdue       = "event:BookOverdue"
	TypeCollectionCreated = "event:CollectionCreated"
	TypeCollectionDeleted = "event:CollectionDeleted"
	TypeResourceAdded     = "event:ResourceAdded"
	TypeResourceDeleted   = "event:ResourceDeleted"
)

// EventSource identifies bookhub as the emitter on every event
const EventSource = "com.bookhub"

// EventPayload is the envelope carried by every domain event task
type EventPayload struct {
	Source string          `json:"source"`
	Detail json.RawMessage `json:"detail"`
}

// NewEventTask creates a domain event task. The detail is any
// JSON-serializable value describing what happened.
func NewEventTask(eventType string, detail interface{}) (*asynq.Task, error) {
	raw, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event detail: %w", err)
	}

	payload, err := json.Marshal(EventPayload{
		Source: EventSource,
		Detail: raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(eventType, payload), nil
}

// ParseEventPayload parses the event envelope from an Asynq task
func ParseEventPayload(task *asynq.Task) (EventPayload, error) {
	var payload EventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
