// Package apperr implements a small error taxonomy: a fixed set of
// error codes with a fixed propagation policy, carried as a concrete
// error type instead of being raised as exceptions.
package apperr

import "fmt"

// Code identifies one of the taxonomy entries.
type Code string

const (
	CodeInvalidInput           Code = "INVALID_INPUT"
	CodeNeedsPlus4             Code = "NEEDS_PLUS4"
	CodeNoCoverage             Code = "NO_COVERAGE"
	CodeSchedulePricingMiss    Code = "SCHEDULE_PRICING_MISS"
	CodeRequiredReferenceMiss  Code = "REQUIRED_REFERENCE_MISS"
	CodeDatasetDigestDiffer    Code = "DATASET_DIGEST_DIFFER"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeTimeout                Code = "TIMEOUT"
	CodeInternal               Code = "INTERNAL"
	CodeNoSnapshot             Code = "NO_SNAPSHOT"
)

// Error is the concrete error type returned by resolver, engine, and
// orchestrator operations in place of raising exceptions for control
// flow.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error wrapping an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// HTTPStatus maps a taxonomy code to its default HTTP status. Line-local
// codes that are non-fatal unless strict (and the comparison-level
// DatasetDigestDiffer) map to 200 here; the HTTP handler decides
// per-request whether the code is surfaced as a top-level error or
// folded into a warning.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput, CodeNeedsPlus4, CodeNoCoverage:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeForbidden:
		return 403
	case CodeSchedulePricingMiss, CodeRequiredReferenceMiss, CodeNoSnapshot:
		return 200
	case CodeDatasetDigestDiffer:
		return 200
	case CodeTimeout:
		return 504
	default:
		return 500
	}
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Code == code
}
