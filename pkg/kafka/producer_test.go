package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"broker1:9092", "broker2:9092"})

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Brokers)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, discardLogger())

	event, err := NewEvent("sponsors.record.created", "spn-1", "sponsors-hub", map[string]string{"title": "Acme"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "sponsors.record.created", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "sponsors.record.created", msg.Topic)
	assert.Equal(t, "spn-1", string(msg.Key))
	assert.Equal(t, event.OccurredAt, msg.Time)
	assert.Equal(t, "sponsors.record.created", header(msg, HeaderEventType))
	assert.Equal(t, "sponsors-hub", header(msg, HeaderSource))
	assert.Equal(t, "corr-1", header(msg, HeaderCorrelationID))
	assert.Equal(t, "application/json", header(msg, HeaderContentType))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.JSONEq(t, `{"title":"Acme"}`, string(decoded.Data))
}

func TestProducer_PublishWithoutCorrelationID(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())

	event, err := NewEvent("sponsors.record.deleted", "spn-2", "sponsors-hub", nil)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), "sponsors.record.deleted", event))

	require.Len(t, w.msgs, 1)
	assert.Empty(t, header(w.msgs[0], HeaderCorrelationID))
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	prevTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prevTP) })

	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())
	event, err := NewEvent("sponsors.record.updated", "spn-3", "sponsors-hub", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "sponsors.record.updated", event))

	require.Len(t, w.msgs, 1)
	assert.NotEmpty(t, header(w.msgs[0], "traceparent"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sponsors.record.updated publish", spans[0].Name())
}

func TestProducer_PublishError(t *testing.T) {
	const topic = "sponsors.record.failing"
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, discardLogger())

	event, err := NewEvent(topic, "spn-4", "sponsors-hub", nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(messagesPublished.WithLabelValues(topic, "error"))
	err = p.Publish(context.Background(), topic, event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to "+topic)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, before+1, testutil.ToFloat64(messagesPublished.WithLabelValues(topic, "error")))
}

func TestProducer_PublishCountsSuccess(t *testing.T) {
	const topic = "sponsors.record.counted"
	p := newProducer(&fakeWriter{}, nil, discardLogger())

	for range 2 {
		event, err := NewEvent(topic, "spn-5", "sponsors-hub", nil)
		require.NoError(t, err)
		require.NoError(t, p.Publish(context.Background(), topic, event))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(messagesPublished.WithLabelValues(topic, "ok")))
}

func TestProducer_PublishNilEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())

	require.Error(t, p.Publish(context.Background(), "sponsors.record.created", nil))
	assert.Empty(t, w.msgs)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)

	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, discardLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers(t *testing.T) {
	err := PingBrokers(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	err = PingBrokers(ctx, []string{"127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all brokers unreachable")
}
