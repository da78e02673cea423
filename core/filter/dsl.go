// Package filter defines the structured filter DSL and the capability-gated
// engine that evaluates it against records. The structured path takes
// (field, operator, value) requests directly, never touching a parser, and
// is the recommended default entry point.
package filter

import (
	"github.com/asaidimu/go-sieve/core/record"
)

// LogicalOperator combines filter conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
)

// Operator is the closed set of comparison operators the engine can execute.
type Operator string

const (
	OperatorEq          Operator = "eq"
	OperatorNeq         Operator = "neq"
	OperatorLt          Operator = "lt"
	OperatorLte         Operator = "lte"
	OperatorGt          Operator = "gt"
	OperatorGte         Operator = "gte"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "ncontains"
	OperatorStartsWith  Operator = "startswith"
	OperatorEndsWith    Operator = "endswith"
	OperatorIn          Operator = "in"
)

// Condition is a single structured filter request: compare one field against
// one literal value with one operator.
type Condition struct {
	Field    string   // The field to apply the filter on.
	Operator Operator // The comparison operator to use.
	Value    any      // The literal value to compare against.
}

// Group combines multiple filters under a logical operator, allowing
// compound filter logic without an expression parser.
type Group struct {
	Operator   LogicalOperator // The logical operator combining the members.
	Conditions []Filter        // The member conditions or nested groups.
}

// Filter is a union of a single condition or a group of conditions.
type Filter struct {
	Condition *Condition `json:",omitempty"`
	Group     *Group     `json:",omitempty"`
}

// knownOperators is the full closed operator set. Capability configuration
// may only narrow this set, never extend it.
var knownOperators = map[Operator]struct{}{
	OperatorEq:          {},
	OperatorNeq:         {},
	OperatorLt:          {},
	OperatorLte:         {},
	OperatorGt:          {},
	OperatorGte:         {},
	OperatorContains:    {},
	OperatorNotContains: {},
	OperatorStartsWith:  {},
	OperatorEndsWith:    {},
	OperatorIn:          {},
}

// IsKnown reports whether the operator belongs to the engine's closed set.
func (o Operator) IsKnown() bool {
	_, ok := knownOperators[o]
	return ok
}

// DefaultOperators returns the default per-kind operator allow-list used
// when a capability configuration does not specify its own.
func DefaultOperators() map[record.Kind][]Operator {
	return map[record.Kind][]Operator{
		record.KindString: {
			OperatorEq, OperatorNeq,
			OperatorContains, OperatorNotContains,
			OperatorStartsWith, OperatorEndsWith,
			OperatorIn,
		},
		record.KindNumber: {
			OperatorEq, OperatorNeq,
			OperatorLt, OperatorLte,
			OperatorGt, OperatorGte,
		},
		record.KindBoolean: {
			OperatorEq, OperatorNeq,
		},
		record.KindStringSet: {
			OperatorContains,
		},
	}
}
