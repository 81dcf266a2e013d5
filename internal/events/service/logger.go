package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/domain"
)

// Logger is a Publisher that writes events to the structured log, where the
// alerting pipeline picks them up.
type Logger struct{ log zerolog.Logger }

func NewLogger(log zerolog.Logger) *Logger { return &Logger{log: log} }

func (l *Logger) Publish(ctx context.Context, e domain.Event) error {
	ev := l.log.Info()
	if e.Type == domain.TypeFanOutFailed || e.Type == domain.TypeDispatchFailed {
		ev = l.log.Warn()
	}
	ev.Str("type", e.Type).
		Str("correlation_id", e.CorrelationID).
		Str("recipient", e.Recipient).
		Str("actor_id", e.ActorID).
		Fields(map[string]any{"meta": e.Meta}).
		Time("ts", e.Time).
		Msg("event")
	return nil
}
