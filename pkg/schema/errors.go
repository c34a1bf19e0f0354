package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeStore             = "STORE_ERROR"
	ErrCodeUpstream          = "UPSTREAM_ERROR"
	ErrCodeCancelled         = "CANCELLED"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeTimeout           = "TIMEOUT_ERROR"
)

// IntelError is the structured error type for all incident-intelligence operations.
type IntelError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	RunID   string         `json:"run_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *IntelError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("[%s] run %s: %s", e.Code, e.RunID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *IntelError) Unwrap() error {
	return e.Cause
}

// NewError creates a new IntelError.
func NewError(code, message string) *IntelError {
	return &IntelError{Code: code, Message: message}
}

// NewErrorf creates a new IntelError with a formatted message.
func NewErrorf(code, format string, args ...any) *IntelError {
	return &IntelError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithRun attaches a flow run ID to the error.
func (e *IntelError) WithRun(runID string) *IntelError {
	e.RunID = runID
	return e
}

// WithCause attaches an underlying cause.
func (e *IntelError) WithCause(err error) *IntelError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *IntelError) WithDetails(details map[string]any) *IntelError {
	e.Details = details
	return e
}
