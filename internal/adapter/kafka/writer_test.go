package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessage(t *testing.T) {
	event := domain.OutputEvent{
		Key:   []byte("FORD|FOCUS|FOCUS ST|2015"),
		Value: []byte(`{"status":"covered"}`),
		Headers: map[string]string{
			domain.HeaderStatus:    "covered",
			domain.HeaderEventType: domain.EventCoverageResult,
		},
	}

	msg := toMessage(event)

	assert.Equal(t, []byte("FORD|FOCUS|FOCUS ST|2015"), msg.Key)
	assert.JSONEq(t, `{"status":"covered"}`, string(msg.Value))
	assert.Equal(t, []kafkago.Header{
		{Key: "event_type", Value: []byte("coverage_result")},
		{Key: "status", Value: []byte("covered")},
	}, msg.Headers)
}

func TestToMessage_NoHeaders(t *testing.T) {
	msg := toMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("v")})
	assert.Empty(t, msg.Headers)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"broker1:9092", "broker2:9092"}, "vehicle-icon-coverage", 3*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "vehicle-icon-coverage", w.writer.Topic)
	assert.Equal(t, 3*time.Second, w.writer.WriteTimeout)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}

func TestWriter_LoadBatch_Empty(t *testing.T) {
	w := NewWriter([]string{"localhost:1"}, "t", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
