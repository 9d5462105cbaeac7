package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", uuid.New()),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []string
	err        error
	panics     bool
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	h.handled = append(h.handled, event.EventType())
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := t.Context()
	require.NoError(t, bus.Start(ctx))

	placed := &testHandler{eventTypes: []string{"order.placed"}}
	all := &testHandler{}
	bus.Subscribe(placed)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(ctx, newTestEvent("order.placed"), newTestEvent("order.cancelled")))

	assert.Equal(t, []string{"order.placed"}, placed.seen())
	assert.Equal(t, []string{"order.placed", "order.cancelled"}, all.seen())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &testHandler{eventTypes: []string{"order.placed"}}
	bus.Subscribe(h, "payment.completed")

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("order.placed"), newTestEvent("payment.completed")))
	assert.Equal(t, []string{"payment.completed"}, h.seen())
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &testHandler{err: errors.New("handler down")}
	panicking := &testHandler{panics: true}
	healthy := &testHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("order.paid")))
	assert.Equal(t, []string{"order.paid"}, failing.seen())
	assert.Equal(t, []string{"order.paid"}, healthy.seen())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &testHandler{eventTypes: []string{"order.placed"}}
	w := &testHandler{}
	bus.Subscribe(h)
	bus.Subscribe(w)
	bus.Unsubscribe(h)
	bus.Unsubscribe(w)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("order.placed")))
	assert.Empty(t, h.seen())
	assert.Empty(t, w.seen())
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := t.Context()
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("order.placed")), ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent("order.placed")))
}

func TestLoggingHandler(t *testing.T) {
	h := LoggingHandler{}
	assert.Empty(t, h.EventTypes())
	assert.NoError(t, h.Handle(t.Context(), newTestEvent("order.placed")))
}

func TestEnvelope(t *testing.T) {
	e := newTestEvent("order.placed")
	env, err := NewEnvelope(e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, env.ID)
	assert.Equal(t, "order.placed", env.Type)
	assert.Equal(t, e.AggID, env.AggregateID)
	assert.Equal(t, "Order", env.AggregateType)

	data, err := env.Marshal()
	require.NoError(t, err)
	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	var payload testEvent
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, "test data", payload.Data)
	assert.Equal(t, e.ID, payload.ID)
}

// fakeWriter records messages instead of talking to a broker
type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForwarder_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	f := NewKafkaForwarderWithWriter(w, time.Second, nil)
	e := newTestEvent("order.placed")

	// a cancelled request context must not abort the write
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, f.Handle(ctx, e))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.True(t, w.deadline)
	assert.Equal(t, e.AggID.String(), string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte("order.placed")})

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, e.ID, env.ID)

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestKafkaForwarder_ThroughBus(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewKafkaForwarderWithWriter(w, time.Second, nil))
	healthy := &testHandler{}
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("payment.completed")))
	assert.Equal(t, []string{"payment.completed"}, healthy.seen())
}

func TestNewKafkaForwarder_Validation(t *testing.T) {
	_, err := NewKafkaForwarder(config.EventConfig{KafkaTopic: "events"}, nil)
	assert.ErrorContains(t, err, "brokers")
	_, err = NewKafkaForwarder(config.EventConfig{KafkaBrokers: []string{"localhost:9092"}}, nil)
	assert.ErrorContains(t, err, "topic")

	f, err := NewKafkaForwarder(config.EventConfig{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "events"}, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
