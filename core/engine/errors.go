package engine

import (
	"github.com/asaidimu/go-sieve/core/expr"
)

// RejectedError reports that an expression failed pre-parse validation.
// The error text stays generic; the detailed reason is carried in the
// struct fields for the audit sink, never echoed back to the caller.
type RejectedError struct {
	Code   expr.RejectCode
	Reason string
}

func (e *RejectedError) Error() string {
	return "expression rejected: unsupported query"
}
