package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitWithWriterAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "smart-parking", "production")

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")

	Info(ctx, "slot allocated", "slot_id", 106)
	Debug(ctx, "hidden outside development")
	span.End()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "slot allocated", record["msg"])
	assert.Equal(t, "smart-parking", record["service"])
	assert.Equal(t, "production", record["environment"])
	assert.Equal(t, float64(106), record["slot_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["traceId"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["spanId"])
}

func TestFromWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := InitWithWriter(&buf, "smart-parking", "development")

	From(context.Background(), logger).Debug("no span")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.NotContains(t, record, "traceId")
}
