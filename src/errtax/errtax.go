// Package errtax implements the error taxonomy of the search engine: a
// small closed set of tagged outcomes that every executor and the
// orchestrator normalize their failures into before they ever reach the
// HTTP adapter.
package errtax

import (
	"fmt"
	"net/http"
)

// Kind is the discriminant of an EngineError.
type Kind string

const (
	InvalidInput    Kind = "INVALID_INPUT"
	NotFound        Kind = "PRODUCT_NOT_FOUND"
	Timeout         Kind = "TIMEOUT"
	Blocked         Kind = "BLOCKED"
	Parse           Kind = "PARSE_ERROR"
	BrowserCrash    Kind = "BROWSER_CRASH"
	BudgetExhausted Kind = "BUDGET_EXHAUSTED"
	CacheError      Kind = "CACHE_ERROR"
	StoreError      Kind = "STORE_ERROR"
	Internal        Kind = "INTERNAL_ERROR"
)

// httpStatus is the fixed mapping from Kind to HTTP status.
var httpStatus = map[Kind]int{
	InvalidInput:    http.StatusBadRequest,
	NotFound:        http.StatusServiceUnavailable,
	Timeout:         http.StatusServiceUnavailable,
	Blocked:         http.StatusServiceUnavailable,
	Parse:           http.StatusServiceUnavailable,
	BrowserCrash:    http.StatusServiceUnavailable,
	BudgetExhausted: http.StatusServiceUnavailable,
	CacheError:      http.StatusInternalServerError,
	StoreError:      http.StatusInternalServerError,
	Internal:        http.StatusInternalServerError,
}

// EngineError is the engine's only error type surfaced across component
// boundaries; executors translate transport-level failures into one of
// these before returning to the orchestrator.
type EngineError struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs an EngineError of the given kind.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap constructs an EngineError of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the adapter must respond with.
func (e *EngineError) HTTPStatus() int {
	if status, ok := httpStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As extracts the EngineError in err, if any, returning ok=false otherwise
// (callers fall back to treating err as an opaque Internal failure).
func As(err error) (*EngineError, bool) {
	ee, ok := err.(*EngineError)
	return ee, ok
}
