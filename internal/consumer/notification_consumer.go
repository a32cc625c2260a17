package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type Dispatcher interface {
	Notify(ctx context.Context, event domain.Event) error
	Email(ctx context.Context, event domain.Event) error
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// Consumer reads lifecycle events and dispatches notifications for them.
// Offsets are committed after dispatch, so a crash mid-message redelivers it.
type Consumer struct {
	dispatcher Dispatcher
	reader     MessageReader
	attempts   int
	backoff    time.Duration
	log        zerolog.Logger
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewConsumer(dispatcher Dispatcher, reader MessageReader, log zerolog.Logger) *Consumer {
	return &Consumer{
		dispatcher: dispatcher,
		reader:     reader,
		attempts:   defaultAttempts,
		backoff:    defaultBackoff,
		log:        log.With().Str("component", "notification_consumer").Logger(),
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing kafka reader")
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Error().Err(err).Msg("error reading message")
		c.sleep(ctx)
		return
	}

	var event domain.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error().Err(err).Int64("offset", m.Offset).Msg("error parsing message, skipping")
		c.commit(ctx, m)
		return
	}

	log := c.log.With().Str("event_type", string(event.Type)).Str("order_id", event.OrderID).Logger()
	if err := c.withRetry(ctx, func() error { return c.dispatcher.Notify(ctx, event) }); err != nil {
		log.Error().Err(err).Msg("in-app notification failed permanently")
	}
	if err := c.withRetry(ctx, func() error { return c.dispatcher.Email(ctx, event) }); err != nil {
		log.Error().Err(err).Msg("email failed permanently")
	}
	if ctx.Err() != nil {
		return
	}
	c.commit(ctx, m)
	log.Debug().Msg("event dispatched")
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.log.Error().Err(err).Int64("offset", m.Offset).Msg("error committing message")
	}
}

func (c *Consumer) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == c.attempts || !c.sleepFor(ctx, c.backoff*time.Duration(attempt)) {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("dispatch failed, retrying")
	}
	return err
}

func (c *Consumer) sleep(ctx context.Context) {
	c.sleepFor(ctx, c.backoff)
}

// sleepFor reports false when ctx ended first.
func (c *Consumer) sleepFor(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
