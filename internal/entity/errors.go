package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldViolation names one rejected input field. LineNo is zero for header fields.
type FieldViolation struct {
	Field  string `json:"field"`
	LineNo int    `json:"lineNo,omitempty"`
	Reason string `json:"reason"`
}

func (v FieldViolation) String() string {
	if v.LineNo > 0 {
		return fmt.Sprintf("line %d: %s %s", v.LineNo, v.Field, v.Reason)
	}

	return fmt.Sprintf("%s %s", v.Field, v.Reason)
}

// ValidationError reports malformed or out-of-range input. It always carries
// every violation found, never only the first one.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// LineNumbers returns the distinct line numbers mentioned by the violations.
func (e *ValidationError) LineNumbers() []int {
	seen := make(map[int]bool)
	lines := make([]int, 0)
	for _, v := range e.Violations {
		if v.LineNo > 0 && !seen[v.LineNo] {
			seen[v.LineNo] = true
			lines = append(lines, v.LineNo)
		}
	}

	return lines
}

// InvalidStateError is returned when an operation is attempted from a status
// that does not allow it.
type InvalidStateError struct {
	Aggregate string
	Id        string
	Operation string
	Status    string
	Reason    string
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("%s %s: %s not allowed in status %s", e.Aggregate, e.Id, e.Operation, e.Status)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}

	return msg
}

type OverReceiptLine struct {
	LineNo    int             `json:"lineNo"`
	Requested decimal.Decimal `json:"requested"`
	Remaining decimal.Decimal `json:"remaining"`
}

// OverReceiptError signals that a receipt would push received quantity past
// the ordered quantity on one or more lines.
type OverReceiptError struct {
	OrderNumber string
	Lines       []OverReceiptLine
}

func (e *OverReceiptError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("line %d requested %s, remaining %s", l.LineNo, l.Requested, l.Remaining))
	}

	return fmt.Sprintf("over-receipt on order %s: %s", e.OrderNumber, strings.Join(parts, "; "))
}

// ConflictError means a concurrent mutation won the race. Callers re-read and retry.
type ConflictError struct {
	Aggregate string
	Id        string
	Reason    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: conflicting update: %s", e.Aggregate, e.Id, e.Reason)
}

type violations []FieldViolation

func (v *violations) add(field string, lineNo int, reason string) {
	*v = append(*v, FieldViolation{Field: field, LineNo: lineNo, Reason: reason})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}

	return &ValidationError{Violations: v}
}
