// Package sqlite provides a concrete implementation of the engine.AuditSink
// interface backed by a SQLite database. The engine emits structured audit
// events; this collaborator persists them so accept/reject decisions and
// capability violations survive the process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asaidimu/go-sieve/core/engine"
	"go.uber.org/zap"
)

// SinkOptions configures the audit sink.
type SinkOptions struct {
	// TableName is the table audit events are written to.
	TableName string

	// CreateTable creates the table on construction if it does not exist.
	CreateTable bool
}

// DefaultSinkOptions returns the default sink configuration.
func DefaultSinkOptions() *SinkOptions {
	return &SinkOptions{
		TableName:   "audit_events",
		CreateTable: true,
	}
}

// AuditSink persists engine audit events to SQLite.
type AuditSink struct {
	db      *sql.DB
	options *SinkOptions
	logger  *zap.Logger
}

// Ensure AuditSink implements the engine.AuditSink interface.
var _ engine.AuditSink = (*AuditSink)(nil)

// NewAuditSink creates an audit sink over an open database handle. The
// caller owns the handle and its lifecycle.
func NewAuditSink(db *sql.DB, logger *zap.Logger, options *SinkOptions) (*AuditSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultSinkOptions()
	}

	sink := &AuditSink{db: db, options: options, logger: logger}
	if options.CreateTable {
		if err := sink.createTable(); err != nil {
			return nil, fmt.Errorf("failed to create audit table: %w", err)
		}
	}
	return sink, nil
}

func (s *AuditSink) createTable() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		engine_id TEXT NOT NULL,
		path TEXT NOT NULL,
		summary TEXT,
		reason TEXT,
		field TEXT,
		operator TEXT,
		violation TEXT,
		record_index INTEGER,
		matched INTEGER,
		duration_ms INTEGER
	)`, s.options.TableName)
	_, err := s.db.Exec(stmt)
	return err
}

// Record inserts one audit event. It satisfies engine.AuditSink, so the
// sink can be attached directly with engine.AttachSink.
func (s *AuditSink) Record(ctx context.Context, event engine.AuditEvent) error {
	stmt := fmt.Sprintf(`INSERT INTO %q
		(id, type, timestamp, engine_id, path, summary, reason, field, operator, violation, record_index, matched, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.options.TableName)

	_, err := s.db.ExecContext(ctx, stmt,
		event.ID,
		string(event.Type),
		event.Timestamp,
		event.EngineID,
		event.Path,
		event.Summary,
		event.Reason,
		event.Field,
		event.Operator,
		event.Violation,
		nullableInt(event.Record),
		nullableInt(event.Matched),
		nullableInt64(event.Duration),
	)
	if err != nil {
		s.logger.Error("failed to persist audit event",
			zap.String("event", string(event.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to persist audit event: %w", err)
	}
	return nil
}

// Events reads back persisted events of one type in timestamp order. An
// empty eventType returns all events.
func (s *AuditSink) Events(ctx context.Context, eventType engine.AuditEventType) ([]engine.AuditEvent, error) {
	stmt := fmt.Sprintf(`SELECT id, type, timestamp, engine_id, path, summary, reason, field, operator, violation, record_index, matched, duration_ms
		FROM %q`, s.options.TableName)
	args := []any{}
	if eventType != "" {
		stmt += " WHERE type = ?"
		args = append(args, string(eventType))
	}
	stmt += " ORDER BY timestamp, id"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var result []engine.AuditEvent
	for rows.Next() {
		var event engine.AuditEvent
		var eventTypeText string
		var recordIndex, matched sql.NullInt64
		var duration sql.NullInt64
		if err := rows.Scan(
			&event.ID, &eventTypeText, &event.Timestamp, &event.EngineID, &event.Path,
			&event.Summary, &event.Reason, &event.Field, &event.Operator, &event.Violation,
			&recordIndex, &matched, &duration,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Type = engine.AuditEventType(eventTypeText)
		if recordIndex.Valid {
			i := int(recordIndex.Int64)
			event.Record = &i
		}
		if matched.Valid {
			i := int(matched.Int64)
			event.Matched = &i
		}
		if duration.Valid {
			d := duration.Int64
			event.Duration = &d
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
