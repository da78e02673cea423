package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/asaidimu/go-sieve/core/record"
	"go.uber.org/zap"
)

// EvaluateCondition evaluates one structured condition against one record,
// consulting the capability table first. A field or operator outside the
// table returns a *CapabilityViolation; a record simply missing an allowed
// field is a non-match, not an error. Literal values whose type cannot be
// compared against the field's kind produce an ordinary error.
func (t *CapabilityTable) EvaluateCondition(rec record.Record, c *Condition) (bool, error) {
	kind, violation := t.Check(c.Field, c.Operator)
	if violation != nil {
		return false, violation
	}

	value, ok := rec.Field(c.Field)
	if !ok {
		// The field is allowed but absent from this record.
		return false, nil
	}
	if value.Kind() != kind {
		return false, fmt.Errorf("record field %q is %s, capability table expects %s", c.Field, value.Kind(), kind)
	}

	switch kind {
	case record.KindString:
		fieldValue, _ := value.AsString()
		return compareString(fieldValue, c.Operator, c.Value)
	case record.KindNumber:
		fieldValue, _ := value.AsNumber()
		return compareNumber(fieldValue, c.Operator, c.Value, t.epsilon)
	case record.KindBoolean:
		fieldValue, _ := value.AsBool()
		return compareBool(fieldValue, c.Operator, c.Value)
	case record.KindStringSet:
		fieldValue, _ := value.AsStringSet()
		return compareStringSet(fieldValue, c.Operator, c.Value)
	default:
		return false, fmt.Errorf("unsupported field kind %q", kind)
	}
}

// CompareNumbers applies a numeric comparison operator with the given
// equality tolerance. Equality and inequality use the tolerance; ordering
// comparisons are exact.
func CompareNumbers(op Operator, a, b, epsilon float64) (bool, error) {
	switch op {
	case OperatorEq:
		return math.Abs(a-b) <= epsilon, nil
	case OperatorNeq:
		return math.Abs(a-b) > epsilon, nil
	case OperatorLt:
		return a < b, nil
	case OperatorLte:
		return a <= b, nil
	case OperatorGt:
		return a > b, nil
	case OperatorGte:
		return a >= b, nil
	default:
		return false, fmt.Errorf("operator %q is not a numeric comparison", op)
	}
}

func compareNumber(fieldValue float64, op Operator, literal any, epsilon float64) (bool, error) {
	num, ok := ToFloat64(literal)
	if !ok {
		return false, fmt.Errorf("operator %q requires a numeric literal, got %T", op, literal)
	}
	return CompareNumbers(op, fieldValue, num, epsilon)
}

func compareString(fieldValue string, op Operator, literal any) (bool, error) {
	if op == OperatorIn {
		list, ok := toStringList(literal)
		if !ok {
			return false, fmt.Errorf("operator %q requires a list of strings, got %T", op, literal)
		}
		for _, candidate := range list {
			if fieldValue == candidate {
				return true, nil
			}
		}
		return false, nil
	}

	s, ok := literal.(string)
	if !ok {
		return false, fmt.Errorf("operator %q requires a string literal, got %T", op, literal)
	}
	switch op {
	case OperatorEq:
		return fieldValue == s, nil
	case OperatorNeq:
		return fieldValue != s, nil
	case OperatorContains:
		return strings.Contains(fieldValue, s), nil
	case OperatorNotContains:
		return !strings.Contains(fieldValue, s), nil
	case OperatorStartsWith:
		return strings.HasPrefix(fieldValue, s), nil
	case OperatorEndsWith:
		return strings.HasSuffix(fieldValue, s), nil
	default:
		return false, fmt.Errorf("operator %q is not a string comparison", op)
	}
}

func compareBool(fieldValue bool, op Operator, literal any) (bool, error) {
	b, ok := literal.(bool)
	if !ok {
		return false, fmt.Errorf("operator %q requires a boolean literal, got %T", op, literal)
	}
	switch op {
	case OperatorEq:
		return fieldValue == b, nil
	case OperatorNeq:
		return fieldValue != b, nil
	default:
		return false, fmt.Errorf("operator %q is not a boolean comparison", op)
	}
}

func compareStringSet(fieldValue []string, op Operator, literal any) (bool, error) {
	s, ok := literal.(string)
	if !ok {
		return false, fmt.Errorf("operator %q requires a string literal, got %T", op, literal)
	}
	switch op {
	case OperatorContains:
		for _, member := range fieldValue {
			if member == s {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("operator %q is not a string-set comparison", op)
	}
}

// Engine is the structured filter engine: the parser-free evaluation path.
// Every operation is a pure function over its arguments plus the read-only
// capability table, so a single Engine is safe for concurrent use.
type Engine struct {
	caps   *CapabilityTable
	logger *zap.Logger
}

// NewEngine creates a structured filter engine over a capability table.
func NewEngine(caps *CapabilityTable, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{caps: caps, logger: logger}
}

// Capabilities returns the engine's capability table.
func (e *Engine) Capabilities() *CapabilityTable {
	return e.caps
}

// Filter evaluates a single (field, operator, value) request against a slice
// of records and returns the matching subset in original order. An unknown
// field or operator fails the whole request with *InvalidRequest; no partial
// match is returned.
func (e *Engine) Filter(field string, op Operator, value any, records []record.Record) ([]record.Record, error) {
	if !op.IsKnown() {
		return nil, &InvalidRequest{Field: field, Operator: op, Reason: fmt.Sprintf("unknown operator %q", op)}
	}
	kind, violation := e.caps.Check(field, op)
	if violation != nil {
		return nil, &InvalidRequest{Field: field, Operator: op, Reason: violation.Error()}
	}

	condition := &Condition{Field: field, Operator: op, Value: value}
	matched := make([]record.Record, 0, len(records))
	for i, rec := range records {
		passes, err := e.caps.EvaluateCondition(rec, condition)
		if err != nil {
			// Pre-validation makes a capability violation impossible here;
			// anything left is a record/literal type mismatch.
			e.logger.Warn("record excluded from structured filter",
				zap.Int("record", i),
				zap.String("field", field),
				zap.String("operator", string(op)),
				zap.Error(err))
			continue
		}
		if passes {
			matched = append(matched, rec)
		}
	}
	e.logger.Debug("structured filter executed",
		zap.String("field", field),
		zap.String("operator", string(op)),
		zap.String("kind", string(kind)),
		zap.Int("matched", len(matched)))
	return matched, nil
}

// Match recursively evaluates a compound filter against one record with
// short-circuit semantics: "and" stops at the first false or violation,
// "or" stops at the first true. Violations propagate; they are never
// swallowed into a non-match.
func (e *Engine) Match(f *Filter, rec record.Record) (bool, error) {
	if f == nil {
		return true, nil
	}
	if f.Condition != nil {
		return e.caps.EvaluateCondition(rec, f.Condition)
	}
	if f.Group != nil {
		switch f.Group.Operator {
		case LogicalAnd:
			for i := range f.Group.Conditions {
				passes, err := e.Match(&f.Group.Conditions[i], rec)
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case LogicalOr:
			for i := range f.Group.Conditions {
				passes, err := e.Match(&f.Group.Conditions[i], rec)
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator %q", f.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty filter structure")
}

// FilterSet evaluates a compound filter over a slice of records, returning
// the matching subset in original order. A record producing an evaluation
// error is logged and excluded; a capability violation fails the request as
// a whole, since the filter itself is naming disallowed capabilities.
func (e *Engine) FilterSet(f *Filter, records []record.Record) ([]record.Record, error) {
	matched := make([]record.Record, 0, len(records))
	for i, rec := range records {
		passes, err := e.Match(f, rec)
		if err != nil {
			var violation *CapabilityViolation
			if errors.As(err, &violation) {
				return nil, violation
			}
			e.logger.Warn("record excluded from filter set",
				zap.Int("record", i),
				zap.Error(err))
			continue
		}
		if passes {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}
