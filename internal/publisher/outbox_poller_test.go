package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

type mockEventStore struct {
	m         sync.Mutex
	events    []*repository.OutboxEvent
	processed []int64
	fetchErr  error
	markErr   error
}

func (s *mockEventStore) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*repository.OutboxEvent
	for _, e := range s.events {
		done := false
		for _, id := range s.processed {
			if id == e.ID {
				done = true
			}
		}
		if !done {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *mockEventStore) MarkEventAsProcessed(_ context.Context, id int64) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.processed = append(s.processed, id)
	return nil
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	failKeys map[string]bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, msg := range msgs {
		if w.failKeys[string(msg.Key)] {
			return fmt.Errorf("broker unavailable")
		}
		w.messages = append(w.messages, msg)
	}
	return nil
}

func (w *mockWriter) Close() error { return nil }

func outboxEvent(id int64, order, eventType string) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          id,
		AggregateID: order,
		EventType:   eventType,
		Payload:     []byte(fmt.Sprintf(`{"event_type":%q,"order_id":%q}`, eventType, order)),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	store := &mockEventStore{events: []*repository.OutboxEvent{
		outboxEvent(1, "order-a", "order_placed"),
		outboxEvent(2, "order-b", "artwork_approved"),
	}}
	writer := &mockWriter{}
	p := NewOutboxPoller(store, writer, time.Second, 10, zerolog.Nop())

	assert.Equal(t, 2, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []int64{1, 2}, store.processed)
	require.Len(t, writer.messages, 2)
	assert.Equal(t, "order-a", string(writer.messages[0].Key))
	assert.Equal(t, "event_type", writer.messages[0].Headers[0].Key)
	assert.Equal(t, "order_placed", string(writer.messages[0].Headers[0].Value))

	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()), "nothing left")
}

func TestProcessUnpublishedEvents_FailureHoldsBackSameOrder(t *testing.T) {
	store := &mockEventStore{events: []*repository.OutboxEvent{
		outboxEvent(1, "order-a", "order_placed"),
		outboxEvent(2, "order-b", "order_placed"),
		outboxEvent(3, "order-a", "payment_received"),
	}}
	writer := &mockWriter{failKeys: map[string]bool{"order-a": true}}
	p := NewOutboxPoller(store, writer, time.Second, 10, zerolog.Nop())

	assert.Equal(t, 1, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []int64{2}, store.processed)

	writer.failKeys = nil
	assert.Equal(t, 2, p.processUnpublishedEvents(context.Background()), "retried on the next tick")
	assert.Equal(t, []int64{2, 1, 3}, store.processed)
	assert.Equal(t, "order_placed", string(writer.messages[1].Headers[0].Value))
	assert.Equal(t, "payment_received", string(writer.messages[2].Headers[0].Value))
}

func TestProcessUnpublishedEvents_StoreErrors(t *testing.T) {
	writer := &mockWriter{}
	p := NewOutboxPoller(&mockEventStore{fetchErr: errors.New("db down")}, writer, time.Second, 10, zerolog.Nop())
	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()))
	assert.Empty(t, writer.messages)

	store := &mockEventStore{events: []*repository.OutboxEvent{outboxEvent(1, "order-a", "order_placed")}, markErr: errors.New("db down")}
	p = NewOutboxPoller(store, writer, time.Second, 10, zerolog.Nop())
	assert.Equal(t, 0, p.processUnpublishedEvents(context.Background()))
	assert.Len(t, writer.messages, 1, "published, will be re-sent once marking works")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &mockEventStore{events: []*repository.OutboxEvent{outboxEvent(1, "order-a", "order_placed")}}
	p := NewOutboxPoller(store, &mockWriter{}, 10*time.Millisecond, 10, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.m.Lock()
		defer store.m.Unlock()
		return len(store.processed) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) string {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func TestOutboxPoller_PublishesToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	broker := setupKafka(t)
	const topic = "storefront-events-test"

	store := &mockEventStore{events: []*repository.OutboxEvent{outboxEvent(7, "order-k", "order_placed")}}
	writer := NewKafkaWriter(topic, broker)
	p := NewOutboxPoller(store, writer, 100*time.Millisecond, 10, zerolog.Nop())
	defer p.Close()

	require.Eventually(t, func() bool {
		return p.processUnpublishedEvents(context.Background()) == 1
	}, 30*time.Second, 500*time.Millisecond)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{Brokers: []string{broker}, Topic: topic, MaxBytes: 10e6})
	defer reader.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-k", string(msg.Key))
	assert.JSONEq(t, `{"event_type":"order_placed","order_id":"order-k"}`, string(msg.Value))
}
