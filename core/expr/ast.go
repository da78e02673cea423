// Package expr implements the expression-string entry point of the filter
// engine: a pre-parse syntax validator, a hand-written lexer, and a
// recursive-descent parser producing a small, closed abstract syntax tree.
// The grammar has no production for method calls, member access, type
// references or object construction; those capabilities do not exist in the
// tree, which is a stronger guarantee than checking and denying them.
package expr

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/filter"
)

// Node is a node in the expression AST. The node set is closed; nothing
// outside this package can add productions.
type Node interface {
	isNode()
}

// FieldRef references a record field by name. Size marks the size(field)
// accessor form, which reads the element count of a string-set field.
type FieldRef struct {
	Name string
	Size bool
}

func (FieldRef) isNode() {}

// Literal is a constant value: string, float64 or bool.
type Literal struct {
	Value any
}

func (Literal) isNode() {}

// Compare compares a field reference against a literal with one of the
// comparison operators.
type Compare struct {
	Field FieldRef
	Op    filter.Operator
	Value Literal
}

func (Compare) isNode() {}

// StringPred applies a string predicate (contains, startswith, endswith) to
// a field against a quoted string literal.
type StringPred struct {
	Field string
	Pred  filter.Operator
	Value string
}

func (StringPred) isNode() {}

// And is the short-circuit conjunction of two subtrees.
type And struct {
	Left  Node
	Right Node
}

func (And) isNode() {}

// Or is the short-circuit disjunction of two subtrees.
type Or struct {
	Left  Node
	Right Node
}

func (Or) isNode() {}

// ParseError reports malformed input that slipped past the validator's
// allow-list syntactically. It is an expected, recoverable outcome.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
}
