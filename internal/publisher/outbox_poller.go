package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

type EventStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// MessageWriter is the subset of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller moves committed lifecycle events from the outbox table to
// Kafka. A row is marked processed only after the broker accepted it, so a
// failed publish is retried on the next tick.
type OutboxPoller struct {
	interval  time.Duration
	batchSize int
	store     EventStore
	writer    MessageWriter
	log       zerolog.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(store EventStore, writer MessageWriter, interval time.Duration, batchSize int, log zerolog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		interval:  interval,
		batchSize: batchSize,
		store:     store,
		writer:    writer,
		log:       log.With().Str("component", "outbox_poller").Logger(),
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedEvents publishes one batch and returns how many rows were
// marked processed. After a failure the remaining events of the same order
// wait for the next tick so they are not delivered out of order.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.store.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	blocked := make(map[string]bool)
	published := 0
	for _, event := range events {
		if blocked[event.AggregateID] {
			continue
		}
		if err := p.publish(ctx, event); err != nil {
			p.log.Warn().Err(err).
				Int64("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish outbox event")
			blocked[event.AggregateID] = true
			continue
		}
		if err := p.store.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark outbox event as processed")
			blocked[event.AggregateID] = true
			continue
		}
		published++
	}
	if published > 0 {
		p.log.Debug().Int("count", published).Msg("outbox events published")
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
