package bundle

import (
	"errors"
	"fmt"
	"time"
)

// ResultStatus classifies the outcome of one dispatched entry operation.
type ResultStatus string

const (
	ResultCreated     ResultStatus = "created"
	ResultUpdated     ResultStatus = "updated"
	ResultDeleted     ResultStatus = "deleted"
	ResultBadRequest  ResultStatus = "bad-request"
	ResultNotFound    ResultStatus = "not-found"
	ResultInvalid     ResultStatus = "invalid"
	ResultConflict    ResultStatus = "conflict"
	ResultServerError ResultStatus = "server-error"
)

// Success reports whether the status represents a committed mutation.
func (s ResultStatus) Success() bool {
	switch s {
	case ResultCreated, ResultUpdated, ResultDeleted:
		return true
	}
	return false
}

// HTTPStatus maps the result status to its HTTP-equivalent response marker.
func (s ResultStatus) HTTPStatus() string {
	switch s {
	case ResultCreated:
		return "201"
	case ResultUpdated:
		return "200"
	case ResultDeleted:
		return "204"
	case ResultBadRequest:
		return "400"
	case ResultNotFound:
		return "404"
	case ResultConflict:
		return "409"
	case ResultInvalid:
		return "422"
	default:
		return "500"
	}
}

// Diagnostic codes attached to non-success outcomes.
const (
	DiagStructure     = "structure"
	DiagRequired      = "required"
	DiagValue         = "value"
	DiagNotSupported  = "not-supported"
	DiagNotFound      = "not-found"
	DiagInvalid       = "invalid"
	DiagConflict      = "conflict"
	DiagRolledBack    = "rolled-back"
	DiagException     = "exception"
	DiagUnresolvedRef = "reference-unresolved"
)

// Diagnostics is the structured error detail attached to a failed entry.
type Diagnostics struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OperationResult is the typed outcome the dispatcher returns for every
// entry. Entry-level failures are values, never errors: the coordinator
// loop inspects the status to decide whether to continue or abort.
type OperationResult struct {
	Status       ResultStatus
	Location     string
	ETag         string
	LastModified time.Time
	Diagnostics  *Diagnostics
}

// FailureResult builds a non-success OperationResult with diagnostics.
func FailureResult(status ResultStatus, code, format string, args ...interface{}) *OperationResult {
	return &OperationResult{
		Status:      status,
		Diagnostics: &Diagnostics{Code: code, Message: fmt.Sprintf(format, args...)},
	}
}

// ErrIntegrityViolation signals that a response bundle would not have
// carried exactly one entry per request entry. It indicates a coordinator
// bug and is always raised, never silently returned to the caller.
var ErrIntegrityViolation = errors.New("response entry count does not match request entry count")

// Sentinel errors resource handlers return to classify failures.
var (
	// ErrNotFound maps to a 404-equivalent entry outcome.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict maps to a 409-equivalent entry outcome.
	ErrConflict = errors.New("resource conflict")
)

// ValidationError is returned by resource handlers when a payload fails
// schema or business rules. It maps to a 422-equivalent entry outcome.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StructuralError rejects a whole bundle before any store access.
type StructuralError struct {
	Violations []Violation
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("bundle failed structural validation with %d violation(s)", len(e.Violations))
}

// StorageError wraps an infrastructure failure while opening or finalizing
// a transaction or savepoint.
type StorageError struct {
	Op  string // "begin", "commit", "rollback", "savepoint"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
