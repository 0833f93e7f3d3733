package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func slowQueryLog(t *testing.T, threshold time.Duration) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetSlowQueryLogging(threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	return &buf
}

func TestTraceQuery_Span(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, end := TraceQuery(context.Background(), "GetMutationReport", "SELECT 1")
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.GetMutationReport", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetMutationReport", attrs["db.operation"])
	assert.Equal(t, "SELECT 1", attrs["db.statement"])
}

func TestTraceQuery_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "CreateMutationReport", "INSERT")
	end(errors.New("unique violation"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "unique violation", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestTraceQuery_SlowQueryLogged(t *testing.T) {
	buf := slowQueryLog(t, time.Nanosecond)

	_, end := TraceQuery(context.Background(), "ListMutationReports", "SELECT * FROM mutation_reports")
	time.Sleep(time.Millisecond)
	end(errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"slow query"`)
	assert.Contains(t, out, `"operation":"ListMutationReports"`)
	assert.Contains(t, out, `"error":"timeout"`)
}

func TestTraceQuery_FastQueryNotLogged(t *testing.T) {
	buf := slowQueryLog(t, time.Hour)

	_, end := TraceQuery(context.Background(), "GetMutationReport", "SELECT 1")
	end(nil)

	assert.Zero(t, buf.Len())
}

func TestSetSlowQueryLogging_Disable(t *testing.T) {
	slowQueryLog(t, time.Second)
	require.NotNil(t, slowQueries.Load())

	SetSlowQueryLogging(0, slog.Default())
	assert.Nil(t, slowQueries.Load())

	SetSlowQueryLogging(time.Second, nil)
	assert.Nil(t, slowQueries.Load())
}
