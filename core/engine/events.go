package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditEventType defines the possible audit event types the engine emits.
type AuditEventType string

const (
	EventExpressionRejected  AuditEventType = "expression:rejected"
	EventParseFailed         AuditEventType = "expression:parse:failed"
	EventCapabilityViolation AuditEventType = "filter:capability:violation"
	EventFilterExecuted      AuditEventType = "filter:executed"
)

// AuditEventTypes returns all event types, in emission-severity order.
func AuditEventTypes() []AuditEventType {
	return []AuditEventType{
		EventExpressionRejected,
		EventParseFailed,
		EventCapabilityViolation,
		EventFilterExecuted,
	}
}

// AuditEvent is the structured record of one engine decision. Expression
// content never appears verbatim: Summary is a bounded, sanitized rendering
// so a crafted expression cannot inject payloads into downstream logs.
type AuditEvent struct {
	ID        string         `json:"id"`
	Type      AuditEventType `json:"type"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
	EngineID  string         `json:"engineId"`
	Path      string         `json:"path"` // "expression" or "structured"
	Summary   string         `json:"summary,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Field     string         `json:"field,omitempty"`
	Operator  string         `json:"operator,omitempty"`
	Violation string         `json:"violation,omitempty"`
	Record    *int           `json:"record,omitempty"`
	Matched   *int           `json:"matched,omitempty"`
	Duration  *int64         `json:"duration,omitempty"` // milliseconds
}

// AuditCallback receives audit events from a subscription.
type AuditCallback func(ctx context.Context, event AuditEvent) error

// AuditSink is the interface an external audit collaborator implements.
// The engine emits events; the sink persists them. No sink implementation
// lives inside the engine packages.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

const (
	pathExpression = "expression"
	pathStructured = "structured"
)

// summaryLimit bounds how much of a sanitized expression an event carries.
const summaryLimit = 48

// sanitizeSummary produces a bounded, sanitized rendering of an expression
// for audit events. Characters outside a conservative safe set are masked
// and the output is truncated, so rejected payloads cannot reach logs
// verbatim.
func sanitizeSummary(expression string) string {
	var sb strings.Builder
	for _, r := range expression {
		if sb.Len() >= summaryLimit {
			sb.WriteString("…")
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case strings.ContainsRune(" _<>=!()'.", r):
			sb.WriteRune(r)
		default:
			sb.WriteRune('?')
		}
	}
	return fmt.Sprintf("%s (len=%d)", sb.String(), len(expression))
}

func (e *Engine) newEvent(eventType AuditEventType, path string) AuditEvent {
	return AuditEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		EngineID:  e.id,
		Path:      path,
	}
}

// emitEvent publishes an event on the bus, if one is running.
func (e *Engine) emitEvent(event AuditEvent) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

func intPtr(i int) *int {
	return &i
}

func durationPtr(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	return &ms
}
