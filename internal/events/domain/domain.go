package domain

import (
	"context"
	"time"
)

// Event represents an audit event emitted by the dispatch pipeline.
// Type examples: "dispatch.completed", "dispatch.duplicate", "dispatch.fanout.failed"
// Meta may contain notification_type, locale, message_id, error kind, etc.
// Meta must never carry secrets (passwords, reset codes, API keys).
type Event struct {
	Type          string
	CorrelationID string
	Recipient     string
	ActorID       string
	Meta          map[string]string
	Time          time.Time
}

// Publisher publishes events to an external system (log, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Event types.
const (
	TypeDispatchCompleted = "dispatch.completed"
	TypeDispatchDuplicate = "dispatch.duplicate"
	TypeDispatchFailed    = "dispatch.failed"
	TypeFanOutFailed      = "dispatch.fanout.failed"
	TypeSettingsUpdated   = "settings.update.success"
)
