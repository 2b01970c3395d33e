package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeUnsupportedAction = "UNSUPPORTED_ACTION"
	ErrCodeTemplate          = "TEMPLATE_ERROR"
	ErrCodeExpression        = "EXPRESSION_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeStore             = "STORE_ERROR"
)

// BrainError is the structured error type for all brain pipeline operations.
type BrainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *BrainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *BrainError) Unwrap() error {
	return e.Cause
}

// NewError creates a new BrainError.
func NewError(code, message string) *BrainError {
	return &BrainError{Code: code, Message: message}
}

// NewErrorf creates a new BrainError with a formatted message.
func NewErrorf(code, format string, args ...any) *BrainError {
	return &BrainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying cause.
func (e *BrainError) WithCause(err error) *BrainError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *BrainError) WithDetails(details map[string]any) *BrainError {
	e.Details = details
	return e
}
