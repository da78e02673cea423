// Package engine wires the layered defense together: syntax validation,
// closed-grammar parsing, and capability-gated evaluation over records, with
// structured audit events on every accept/reject decision. It also exposes
// the parser-free structured path, which shares the same capability table
// and comparison functions and is the recommended default.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/record"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures an Engine. All settings are fixed at construction;
// nothing is runtime-mutable afterwards.
type Options struct {
	// MaxExpressionLength caps expression input size. Non-positive values
	// use expr.DefaultMaxLength.
	MaxExpressionLength int

	// Logger receives engine diagnostics. Nil uses a no-op logger.
	Logger *zap.Logger
}

// DefaultOptions returns the default engine options.
func DefaultOptions() *Options {
	return &Options{MaxExpressionLength: expr.DefaultMaxLength}
}

// Engine is the sandboxed predicate evaluation engine. It owns an immutable
// capability table, a compiled syntax validator, and an audit event bus.
// All filter operations are pure functions over their arguments plus that
// read-only state, so one Engine is safe for concurrent use from a
// worker-pool host without locking.
type Engine struct {
	id         string
	caps       *filter.CapabilityTable
	validator  *expr.Validator
	structured *filter.Engine
	bus        *events.TypedEventBus[AuditEvent]
	logger     *zap.Logger

	subMu         sync.Mutex
	subscriptions map[string][]func()
}

// New creates an Engine over a capability table. The table is the single
// source of truth for every evaluation path the engine exposes.
func New(caps *filter.CapabilityTable, options *Options) (*Engine, error) {
	if caps == nil {
		return nil, fmt.Errorf("engine requires a capability table")
	}
	if options == nil {
		options = DefaultOptions()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bus, err := events.NewTypedEventBus[AuditEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create audit event bus: %w", err)
	}

	return &Engine{
		id:            uuid.New().String(),
		caps:          caps,
		validator:     expr.NewValidator(options.MaxExpressionLength),
		structured:    filter.NewEngine(caps, logger),
		bus:           bus,
		logger:        logger,
		subscriptions: make(map[string][]func()),
	}, nil
}

// ID returns the engine's unique identifier, carried on every audit event.
func (e *Engine) ID() string {
	return e.id
}

// Capabilities returns the engine's capability table.
func (e *Engine) Capabilities() *filter.CapabilityTable {
	return e.caps
}

// Validate runs the pre-parse gate over an expression. Pure; no events are
// emitted, making it suitable for interactive "is this query ok" probes.
func (e *Engine) Validate(expression string) expr.Verdict {
	return e.validator.Validate(expression)
}

// Compile validates and parses an expression. A rejected expression
// produces zero AST nodes and a *RejectedError; a malformed one a
// *expr.ParseError. Both outcomes emit audit events with a sanitized
// summary of the input, never the raw text.
func (e *Engine) Compile(expression string) (expr.Node, error) {
	verdict := e.validator.Validate(expression)
	if !verdict.Accepted {
		event := e.newEvent(EventExpressionRejected, pathExpression)
		event.Summary = sanitizeSummary(expression)
		event.Reason = string(verdict.Code) + ": " + verdict.Reason
		e.emitEvent(event)
		e.logger.Info("expression rejected",
			zap.String("code", string(verdict.Code)),
			zap.String("summary", event.Summary))
		return nil, &RejectedError{Code: verdict.Code, Reason: verdict.Reason}
	}

	node, err := expr.Parse(expression)
	if err != nil {
		event := e.newEvent(EventParseFailed, pathExpression)
		event.Summary = sanitizeSummary(expression)
		event.Reason = err.Error()
		e.emitEvent(event)
		e.logger.Info("expression parse failed",
			zap.String("summary", event.Summary),
			zap.Error(err))
		return nil, err
	}
	return node, nil
}

// Evaluate walks an AST against one record. Field and operator checks run
// against the capability table on every access; a disallowed field or
// operator returns a *filter.CapabilityViolation. And/or short-circuit, and
// violations propagate instead of degrading to false.
func (e *Engine) Evaluate(node expr.Node, rec record.Record) (bool, error) {
	switch n := node.(type) {
	case *expr.And:
		left, err := e.Evaluate(n.Left, rec)
		if err != nil || !left {
			return false, err
		}
		return e.Evaluate(n.Right, rec)

	case *expr.Or:
		left, err := e.Evaluate(n.Left, rec)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return e.Evaluate(n.Right, rec)

	case *expr.Compare:
		return e.evaluateCompare(n, rec)

	case *expr.StringPred:
		return e.caps.EvaluateCondition(rec, &filter.Condition{
			Field:    n.Field,
			Operator: n.Pred,
			Value:    n.Value,
		})

	default:
		// FieldRef and Literal are not boolean expressions on their own,
		// and no other node types exist.
		return false, fmt.Errorf("node %T is not a boolean predicate", node)
	}
}

// evaluateCompare handles the comparison leaf, including the size(field)
// accessor on string-set fields.
func (e *Engine) evaluateCompare(n *expr.Compare, rec record.Record) (bool, error) {
	if !n.Field.Size {
		return e.caps.EvaluateCondition(rec, &filter.Condition{
			Field:    n.Field.Name,
			Operator: n.Op,
			Value:    n.Value.Value,
		})
	}

	kind, ok := e.caps.FieldKind(n.Field.Name)
	if !ok {
		return false, &filter.CapabilityViolation{
			Kind:  filter.ViolationFieldNotAllowed,
			Field: n.Field.Name, Operator: n.Op,
		}
	}
	if kind != record.KindStringSet {
		return false, fmt.Errorf("size() requires a string-set field, %q is %s", n.Field.Name, kind)
	}
	// size() yields a number, so the numeric operator allow-list gates it.
	if !e.caps.Allows(record.KindNumber, n.Op) {
		return false, &filter.CapabilityViolation{
			Kind:  filter.ViolationOperatorNotAllowed,
			Field: n.Field.Name, Operator: n.Op,
		}
	}
	want, ok := filter.ToFloat64(n.Value.Value)
	if !ok {
		return false, fmt.Errorf("size() comparison requires a numeric literal, got %T", n.Value.Value)
	}

	value, ok := rec.Field(n.Field.Name)
	if !ok {
		return false, nil
	}
	set, ok := value.AsStringSet()
	if !ok {
		return false, fmt.Errorf("record field %q is %s, capability table expects %s", n.Field.Name, value.Kind(), kind)
	}
	return filter.CompareNumbers(n.Op, float64(len(set)), want, e.caps.Epsilon())
}

// FilterExpression runs the full expression path over a batch of records:
// validate, parse, then evaluate once per record, returning the matching
// subset in original order. A record that triggers a capability violation
// or evaluation error is audited and excluded without aborting the batch;
// one malformed record must not deny service for the rest. A rejected or
// unparsable expression fails the call outright - the engine never falls
// back to returning the unfiltered input.
func (e *Engine) FilterExpression(expression string, records []record.Record) ([]record.Record, error) {
	start := time.Now()
	node, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	summary := sanitizeSummary(expression)
	matched := make([]record.Record, 0, len(records))
	for i, rec := range records {
		passes, err := e.Evaluate(node, rec)
		if err != nil {
			e.reportRecordFailure(err, summary, i)
			continue
		}
		if passes {
			matched = append(matched, rec)
		}
	}

	event := e.newEvent(EventFilterExecuted, pathExpression)
	event.Summary = summary
	event.Matched = intPtr(len(matched))
	event.Duration = durationPtr(start)
	e.emitEvent(event)
	e.logger.Debug("expression filter executed",
		zap.String("summary", summary),
		zap.Int("records", len(records)),
		zap.Int("matched", len(matched)))
	return matched, nil
}

// reportRecordFailure audits a per-record evaluation failure. Capability
// violations are logged at elevated severity: a violation is an attempted
// sandbox escape, not a routine non-match.
func (e *Engine) reportRecordFailure(err error, summary string, index int) {
	var violation *filter.CapabilityViolation
	if errors.As(err, &violation) {
		event := e.newEvent(EventCapabilityViolation, pathExpression)
		event.Summary = summary
		event.Field = violation.Field
		event.Operator = string(violation.Operator)
		event.Violation = string(violation.Kind)
		event.Record = intPtr(index)
		e.emitEvent(event)
		e.logger.Warn("capability violation during evaluation",
			zap.String("kind", string(violation.Kind)),
			zap.String("field", violation.Field),
			zap.String("operator", string(violation.Operator)),
			zap.Int("record", index))
		return
	}
	e.logger.Warn("record excluded from expression filter",
		zap.Int("record", index),
		zap.Error(err))
}

// Filter is the structured path: a single (field, operator, value) request,
// no parser involved. Unknown fields or operators fail the whole request
// with *filter.InvalidRequest and an audit event; no partial result is
// returned.
func (e *Engine) Filter(field string, op filter.Operator, value any, records []record.Record) ([]record.Record, error) {
	start := time.Now()
	matched, err := e.structured.Filter(field, op, value, records)
	if err != nil {
		event := e.newEvent(EventExpressionRejected, pathStructured)
		event.Field = field
		event.Operator = string(op)
		event.Reason = "invalid structured request"
		e.emitEvent(event)
		return nil, err
	}

	event := e.newEvent(EventFilterExecuted, pathStructured)
	event.Field = field
	event.Operator = string(op)
	event.Matched = intPtr(len(matched))
	event.Duration = durationPtr(start)
	e.emitEvent(event)
	return matched, nil
}

// Match evaluates a compound structured filter against one record.
func (e *Engine) Match(f *filter.Filter, rec record.Record) (bool, error) {
	return e.structured.Match(f, rec)
}

// FilterSet evaluates a compound structured filter over a batch of records.
// A filter naming a disallowed capability fails the request and emits a
// violation event.
func (e *Engine) FilterSet(f *filter.Filter, records []record.Record) ([]record.Record, error) {
	start := time.Now()
	matched, err := e.structured.FilterSet(f, records)
	if err != nil {
		var violation *filter.CapabilityViolation
		if errors.As(err, &violation) {
			event := e.newEvent(EventCapabilityViolation, pathStructured)
			event.Field = violation.Field
			event.Operator = string(violation.Operator)
			event.Violation = string(violation.Kind)
			e.emitEvent(event)
			e.logger.Warn("capability violation in structured filter",
				zap.String("kind", string(violation.Kind)),
				zap.String("field", violation.Field))
		}
		return nil, err
	}

	event := e.newEvent(EventFilterExecuted, pathStructured)
	event.Matched = intPtr(len(matched))
	event.Duration = durationPtr(start)
	e.emitEvent(event)
	return matched, nil
}

// Subscribe registers a callback for a specific audit event type. It
// returns a unique id for later unsubscription.
func (e *Engine) Subscribe(eventType AuditEventType, callback AuditCallback) string {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	unsubscribe := e.bus.Subscribe(string(eventType), callback)
	id := uuid.New().String()
	e.subscriptions[id] = []func(){unsubscribe}
	return id
}

// AttachSink subscribes an audit sink to every event type the engine emits,
// returning a single id that detaches the sink again.
func (e *Engine) AttachSink(sink AuditSink) string {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	unsubscribes := make([]func(), 0, len(AuditEventTypes()))
	for _, eventType := range AuditEventTypes() {
		unsubscribe := e.bus.Subscribe(string(eventType), AuditCallback(sink.Record))
		unsubscribes = append(unsubscribes, unsubscribe)
	}
	id := uuid.New().String()
	e.subscriptions[id] = unsubscribes
	return id
}

// Unsubscribe removes a subscription or detaches a sink by id.
func (e *Engine) Unsubscribe(id string) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, unsubscribe := range e.subscriptions[id] {
		unsubscribe()
	}
	delete(e.subscriptions, id)
}
