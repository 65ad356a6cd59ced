package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// ID lifecycle errors
	ErrNotCopyable     ErrorCode = "NOT_COPYABLE"
	ErrUnknownType     ErrorCode = "UNKNOWN_TYPE"
	ErrRefcountInvalid ErrorCode = "REFCOUNT_INVALID"

	// Override errors
	ErrNotOverridable    ErrorCode = "NOT_OVERRIDABLE"
	ErrMissingReference  ErrorCode = "MISSING_REFERENCE"
	ErrHierarchyInvalid  ErrorCode = "HIERARCHY_INVALID"
	ErrPropertyNotFound  ErrorCode = "PROPERTY_NOT_FOUND"
	ErrOperationConflict ErrorCode = "OPERATION_CONFLICT"
	ErrApplyFailed       ErrorCode = "APPLY_FAILED"

	// Persistence errors
	ErrEncode         ErrorCode = "ENCODE"
	ErrDecode         ErrorCode = "DECODE"
	ErrFixtureLoad    ErrorCode = "FIXTURE_LOAD"
	ErrFixtureInvalid ErrorCode = "FIXTURE_INVALID"
)

// OverrideError represents a structured error with code and details
type OverrideError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *OverrideError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *OverrideError) Unwrap() error {
	return e.Wrapped
}

// Is matches on error code only.
func (e *OverrideError) Is(target error) bool {
	var targetErr *OverrideError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new OverrideError with the given code and message
func New(code ErrorCode, message string) *OverrideError {
	return &OverrideError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new OverrideError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *OverrideError {
	return &OverrideError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *OverrideError {
	if err == nil {
		return nil
	}
	return &OverrideError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *OverrideError {
	if err == nil {
		return nil
	}
	return &OverrideError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *OverrideError) WithDetail(key string, value interface{}) *OverrideError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *OverrideError) WithDetails(details map[string]interface{}) *OverrideError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var oerr *OverrideError
	if errors.As(err, &oerr) {
		return oerr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an OverrideError
func GetErrorCode(err error) ErrorCode {
	var oerr *OverrideError
	if errors.As(err, &oerr) {
		return oerr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var oerr *OverrideError
	if errors.As(err, &oerr) {
		return oerr.Details
	}
	return nil
}
