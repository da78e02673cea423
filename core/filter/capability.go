package filter

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/record"
)

// DefaultEpsilon is the default tolerance for numeric equality. Floating
// point representation error makes exact equality produce false negatives;
// the bound is a tunable, not a guarantee.
const DefaultEpsilon = 1e-4

// ViolationKind classifies an attempted step outside the capability table.
type ViolationKind string

const (
	ViolationFieldNotAllowed    ViolationKind = "field_not_allowed"
	ViolationOperatorNotAllowed ViolationKind = "operator_not_allowed"
)

// CapabilityViolation signals an attempted sandbox escape: an evaluation
// step referenced a field or operator outside the allow-list. It is detected
// and reported, never silently converted to a non-match.
type CapabilityViolation struct {
	Kind     ViolationKind
	Field    string
	Operator Operator
}

func (v *CapabilityViolation) Error() string {
	switch v.Kind {
	case ViolationFieldNotAllowed:
		return fmt.Sprintf("capability violation: field %q is not allowed", v.Field)
	case ViolationOperatorNotAllowed:
		return fmt.Sprintf("capability violation: operator %q is not allowed on field %q", v.Operator, v.Field)
	default:
		return "capability violation"
	}
}

// InvalidRequest reports a structured filter request naming an unknown field
// or operator. The request is refused as a whole; no partial result is
// returned.
type InvalidRequest struct {
	Field    string
	Operator Operator
	Reason   string
}

func (e *InvalidRequest) Error() string {
	return fmt.Sprintf("invalid filter request on field %q: %s", e.Field, e.Reason)
}

// CapabilityConfig describes the contents of a capability table. Zero-value
// members fall back to defaults: DefaultOperators for the operator table and
// DefaultEpsilon for numeric equality.
type CapabilityConfig struct {
	// Fields maps each allowed field name to its kind. A field absent from
	// this map does not exist as far as the evaluator is concerned.
	Fields map[string]record.Kind

	// Operators narrows the per-kind operator allow-list. Nil uses
	// DefaultOperators.
	Operators map[record.Kind][]Operator

	// Epsilon is the numeric equality tolerance. Zero uses DefaultEpsilon.
	Epsilon float64
}

// CapabilityTable is the immutable allow-list of field names and per-kind
// operators. It is built once at engine construction and is the single
// source of truth for what is permitted: the structured filter engine and
// the expression evaluator both consult the same table, which is what
// guarantees behavioral parity between the two entry points.
type CapabilityTable struct {
	fields  map[string]record.Kind
	ops     map[record.Kind]map[Operator]struct{}
	epsilon float64
}

// NewCapabilityTable builds an immutable capability table from a
// configuration. Construction fails if a configured operator falls outside
// the engine's closed operator set; capabilities can be narrowed, never
// widened.
func NewCapabilityTable(config CapabilityConfig) (*CapabilityTable, error) {
	if len(config.Fields) == 0 {
		return nil, fmt.Errorf("capability table requires at least one allowed field")
	}

	fields := make(map[string]record.Kind, len(config.Fields))
	for name, kind := range config.Fields {
		switch kind {
		case record.KindString, record.KindNumber, record.KindBoolean, record.KindStringSet:
			fields[name] = kind
		default:
			return nil, fmt.Errorf("field %q has unknown kind %q", name, kind)
		}
	}

	operators := config.Operators
	if operators == nil {
		operators = DefaultOperators()
	}
	ops := make(map[record.Kind]map[Operator]struct{}, len(operators))
	for kind, list := range operators {
		allowed := make(map[Operator]struct{}, len(list))
		for _, op := range list {
			if !op.IsKnown() {
				return nil, fmt.Errorf("operator %q for kind %q is not part of the supported operator set", op, kind)
			}
			allowed[op] = struct{}{}
		}
		ops[kind] = allowed
	}

	epsilon := config.Epsilon
	if epsilon == 0 {
		epsilon = DefaultEpsilon
	}

	return &CapabilityTable{fields: fields, ops: ops, epsilon: epsilon}, nil
}

// FieldKind returns the kind of an allowed field, or false if the field is
// not in the allow-list.
func (t *CapabilityTable) FieldKind(name string) (record.Kind, bool) {
	kind, ok := t.fields[name]
	return kind, ok
}

// Allows reports whether an operator is permitted for a field kind.
func (t *CapabilityTable) Allows(kind record.Kind, op Operator) bool {
	allowed, ok := t.ops[kind]
	if !ok {
		return false
	}
	_, ok = allowed[op]
	return ok
}

// Epsilon returns the numeric equality tolerance.
func (t *CapabilityTable) Epsilon() float64 {
	return t.epsilon
}

// Fields returns the allowed field names and kinds as a copy.
func (t *CapabilityTable) Fields() map[string]record.Kind {
	out := make(map[string]record.Kind, len(t.fields))
	for name, kind := range t.fields {
		out[name] = kind
	}
	return out
}

// Check verifies that (field, op) is inside the allow-list. It returns the
// field's kind on success and a CapabilityViolation otherwise. The check is
// performed on every access; there is no cached "trusted" lookup to bypass.
func (t *CapabilityTable) Check(field string, op Operator) (record.Kind, *CapabilityViolation) {
	kind, ok := t.fields[field]
	if !ok {
		return "", &CapabilityViolation{Kind: ViolationFieldNotAllowed, Field: field, Operator: op}
	}
	if !t.Allows(kind, op) {
		return "", &CapabilityViolation{Kind: ViolationOperatorNotAllowed, Field: field, Operator: op}
	}
	return kind, nil
}
