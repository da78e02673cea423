package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/asaidimu/go-sieve/core/engine"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T) *AuditSink {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sink, err := NewAuditSink(db, nil, nil)
	require.NoError(t, err)
	return sink
}

func TestAuditSink_RecordAndReadBack(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	matched := 2
	duration := int64(3)
	require.NoError(t, sink.Record(ctx, engine.AuditEvent{
		ID:        "event-1",
		Type:      engine.EventFilterExecuted,
		Timestamp: 1000,
		EngineID:  "engine-1",
		Path:      "expression",
		Summary:   "price < 100 (len=11)",
		Matched:   &matched,
		Duration:  &duration,
	}))
	require.NoError(t, sink.Record(ctx, engine.AuditEvent{
		ID:        "event-2",
		Type:      engine.EventExpressionRejected,
		Timestamp: 2000,
		EngineID:  "engine-1",
		Path:      "expression",
		Reason:    "denied_token: expression contains a denied token: host runtime reference",
	}))

	t.Run("filter by type", func(t *testing.T) {
		events, err := sink.Events(ctx, engine.EventFilterExecuted)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "event-1", events[0].ID)
		require.NotNil(t, events[0].Matched)
		assert.Equal(t, 2, *events[0].Matched)
		require.NotNil(t, events[0].Duration)
		assert.Equal(t, int64(3), *events[0].Duration)
	})

	t.Run("all events in timestamp order", func(t *testing.T) {
		events, err := sink.Events(ctx, "")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "event-1", events[0].ID)
		assert.Equal(t, "event-2", events[1].ID)
		assert.Nil(t, events[1].Matched)
	})
}

func TestAuditSink_AttachedToEngine(t *testing.T) {
	sink := newTestSink(t)
	// Compile-time check lives in sink.go; this confirms the event flow.
	var _ engine.AuditSink = sink
}

func TestDefaultSinkOptions(t *testing.T) {
	options := DefaultSinkOptions()
	assert.Equal(t, "audit_events", options.TableName)
	assert.True(t, options.CreateTable)
}
