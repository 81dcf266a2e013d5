// Package fanout sends one message to many operational recipients.
package fanout

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
)

// Orchestrator delivers copies concurrently and settles all of them: every
// recipient gets an outcome regardless of the others.
type Orchestrator struct {
	delivery edomain.Service
	limit    int
	log      zerolog.Logger
}

func New(delivery edomain.Service, limit int, log zerolog.Logger) *Orchestrator {
	if limit <= 0 {
		limit = 4
	}
	return &Orchestrator{delivery: delivery, limit: limit, log: log}
}

// SendToMany sends msg to each recipient and returns one outcome per
// recipient, in input order. It never fails.
func (o *Orchestrator) SendToMany(ctx context.Context, recipients []string, msg edomain.Envelope) []edomain.DeliveryOutcome {
	out := make([]edomain.DeliveryOutcome, len(recipients))
	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, rcpt := range recipients {
		g.Go(func() error {
			env := msg
			env.To = rcpt
			id, err := o.delivery.Send(ctx, env)
			if err != nil {
				o.log.Warn().Err(err).Str("to", rcpt).Msg("fan-out send failed")
				out[i] = edomain.Failed(rcpt, err)
				return nil
			}
			out[i] = edomain.Succeeded(rcpt, id)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
