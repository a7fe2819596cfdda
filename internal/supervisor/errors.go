package supervisor

import "fmt"

// Error represents a domain-specific supervisor error.
type Error struct {
	Code    string
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

// Error codes.
const (
	ErrCodeInvalidSpec    = "INVALID_SPEC"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
	ErrCodeSpawnFailed    = "SPAWN_FAILED"
	ErrCodeNotFound       = "NOT_FOUND"
)

// NewError creates a new supervisor error.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
