// Package consumer turns order-created events from Kafka into order
// confirmations with at-least-once semantics.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler interface {
	HandleOrderCreated(ctx context.Context, ev dd.OrderCreatedEvent) (dd.Result, error)
}

// NewReader builds a consumer-group reader for the order events topic.
// Offsets are committed explicitly by the consumer.
func NewReader(cfg config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.OrderEventsTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})
}

type Consumer struct {
	reader  Reader
	handler Handler
	log     zerolog.Logger
	backoff func() retry.Backoff
}

func New(r Reader, h Handler, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		handler: h,
		log:     log,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(500 * time.Millisecond)
			b = retry.WithJitterPercent(10, b)
			return retry.WithCappedDuration(time.Minute, b)
		},
	}
}

// Run consumes until ctx is cancelled. A message's offset is committed only
// once its handler has returned nil or the failure is permanent; transient
// failures are retried in place, so a crash mid-retry redelivers it.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Warn().Err(err).Msg("close order event reader")
		}
	}()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch order event: %w", err)
		}
		if err := c.process(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit order event: %w", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) error {
	log := c.log.With().Int("partition", m.Partition).Int64("offset", m.Offset).Logger()

	var ev dd.OrderCreatedEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		log.Error().Err(err).Msg("dropping undecodable order event")
		metrics.IncOrderEvent("dropped")
		return nil
	}
	log = log.With().Str("order_number", ev.OrderNumber).Logger()

	attempt := 0
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		res, err := c.handler.HandleOrderCreated(ctx, ev)
		if err == nil {
			log.Info().Int("attempt", attempt).Bool("duplicate", res.Duplicate).Str("message_id", res.MessageID).Msg("order event handled")
			return nil
		}
		if !Retryable(err) {
			return err
		}
		metrics.IncOrderEvent("retried")
		log.Warn().Err(err).Int("attempt", attempt).Msg("order event failed; retrying")
		return retry.RetryableError(err)
	})
	switch {
	case err == nil:
		metrics.IncOrderEvent("handled")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		// Replaying a request that can never succeed would block the
		// partition.
		log.Error().Err(err).Str("kind", string(errs.KindOf(err))).Msg("dropping order event")
		metrics.IncOrderEvent("dropped")
		return nil
	}
}

// Retryable reports whether a failed dispatch may succeed on a later
// attempt.
func Retryable(err error) bool {
	switch errs.KindOf(err) {
	case errs.DeliveryUnavailable, errs.DeliveryFailed, errs.Internal:
		return true
	}
	return false
}
