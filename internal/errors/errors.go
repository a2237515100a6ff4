// Package errors provides centralized error definitions and error handling utilities
// for the gantry codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures of the timeline engine:
//   - InvalidRangeError: a task whose end date precedes its start date
//   - GestureError: a pointer gesture that could not start or continue
//   - CommitError: the task store rejected a committed date change
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewInvalidRangeError("task-1", start, end)
//	if errors.Is(err, errors.ErrInvalidRange) { ... }
//
//	var commitErr *errors.CommitError
//	if errors.As(err, &commitErr) { ... }
//
// None of these errors is fatal to a rendering session. The classification
// helpers tell the caller whether to surface the message and whether a retry
// is worthwhile.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Schedule sentinel errors
var (
	// ErrInvalidRange indicates a task whose end date is before its start date.
	ErrInvalidRange = New("end date before start date")
	// ErrMinimumDuration indicates a resize that would collapse a task below one day.
	ErrMinimumDuration = New("task must span at least one day")
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
	// ErrPhaseNotFound indicates that a phase could not be found.
	ErrPhaseNotFound = New("phase not found")
	// ErrProjectNotFound indicates that a project could not be found.
	ErrProjectNotFound = New("project not found")
)

// Gesture sentinel errors
var (
	// ErrGestureActive indicates a pointer-down while another gesture holds the slot.
	ErrGestureActive = New("gesture already in progress")
	// ErrNoActiveGesture indicates a move/up/cancel with no gesture in progress.
	ErrNoActiveGesture = New("no gesture in progress")
	// ErrCommitPending indicates a gesture on a task whose last change is still being committed.
	ErrCommitPending = New("commit still pending")
)

// Store sentinel errors
var (
	// ErrCommitRejected indicates the task store refused a date change.
	ErrCommitRejected = New("commit rejected")
	// ErrStoreUnavailable indicates the task store could not be reached.
	ErrStoreUnavailable = New("store unavailable")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GantryError is the base interface for all gantry errors.
type GantryError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the message is safe to show to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRetryable() bool {
	return e.retryable
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// prefixed renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) prefixed(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// InvalidRangeError reports a task whose dates are out of order. Such tasks
// are excluded at ingestion; the error is logged, never fatal.
//
// Example:
//
//	err := errors.NewInvalidRangeError("task-1", start, end)
//	fmt.Println(err) // "invalid range [task=task-1]: end 2024-04-01 before start 2024-04-05"
type InvalidRangeError struct {
	baseError
	TaskID string
	Start  time.Time
	End    time.Time
}

// NewInvalidRangeError creates a new InvalidRangeError.
func NewInvalidRangeError(taskID string, start, end time.Time) *InvalidRangeError {
	return &InvalidRangeError{
		baseError: baseError{
			message: fmt.Sprintf("end %s before start %s",
				end.Format(time.DateOnly), start.Format(time.DateOnly)),
			cause:      ErrInvalidRange,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		TaskID: taskID,
		Start:  start,
		End:    end,
	}
}

// Error returns the formatted error message.
func (e *InvalidRangeError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	prefix := "invalid range"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("invalid range [%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InvalidRangeError) Is(target error) bool {
	if _, ok := target.(*InvalidRangeError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GestureError represents a pointer gesture that was refused.
//
// Example:
//
//	err := errors.NewGestureError("pointer-down ignored", errors.ErrGestureActive).
//		WithTaskID("task-2").WithActiveTaskID("task-1")
type GestureError struct {
	baseError
	TaskID       string
	ActiveTaskID string
	GestureID    string
}

// NewGestureError creates a new GestureError.
func NewGestureError(message string, cause error) *GestureError {
	return &GestureError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: false,
		},
	}
}

// WithTaskID adds the requested task ID to the error context.
func (e *GestureError) WithTaskID(id string) *GestureError {
	e.TaskID = id
	return e
}

// WithActiveTaskID adds the task ID of the gesture holding the slot.
func (e *GestureError) WithActiveTaskID(id string) *GestureError {
	e.ActiveTaskID = id
	return e
}

// WithGestureID adds the active gesture ID.
func (e *GestureError) WithGestureID(id string) *GestureError {
	e.GestureID = id
	return e
}

// Error returns the formatted error message.
func (e *GestureError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.ActiveTaskID != "" {
		parts = append(parts, fmt.Sprintf("active=%s", e.ActiveTaskID))
	}
	if e.GestureID != "" {
		parts = append(parts, fmt.Sprintf("gesture=%s", e.GestureID))
	}
	return e.prefixed("gesture error", parts)
}

// Is checks if this error matches the target.
func (e *GestureError) Is(target error) bool {
	if _, ok := target.(*GestureError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CommitError represents a date change the task store did not accept.
// The caller reverts to the last committed dates and surfaces the message.
//
// Example:
//
//	err := errors.NewCommitError("task-1", storeErr).WithDates(start, end)
type CommitError struct {
	baseError
	TaskID string
	Start  time.Time
	End    time.Time
}

// NewCommitError creates a new CommitError.
func NewCommitError(taskID string, cause error) *CommitError {
	return &CommitError{
		baseError: baseError{
			message:    "could not save new dates",
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
		TaskID: taskID,
	}
}

// WithDates records the dates that were proposed.
func (e *CommitError) WithDates(start, end time.Time) *CommitError {
	e.Start = start
	e.End = end
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *CommitError) WithRetryable(r bool) *CommitError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *CommitError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if !e.Start.IsZero() {
		parts = append(parts, fmt.Sprintf("dates=%s..%s",
			e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly)))
	}
	return e.prefixed("commit error", parts)
}

// Is checks if this error matches the target.
func (e *CommitError) Is(target error) bool {
	if _, ok := target.(*CommitError); ok {
		return true
	}
	if errors.Is(target, ErrCommitRejected) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", "abc123")
//	fmt.Println(err) // "task 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("progress must be between 0 and 100").
//		WithField("progress").WithValue(140)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.prefixed("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gantryErr GantryError
	if As(err, &gantryErr) {
		return gantryErr.IsRetryable()
	}

	return Is(err, ErrStoreUnavailable)
}

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    status = err.Error()
//	} else {
//	    status = "something went wrong"
//	    logger.Error("internal error", "error", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var gantryErr GantryError
	if As(err, &gantryErr) {
		return gantryErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GantryError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var gantryErr GantryError
	if As(err, &gantryErr) {
		return gantryErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
