package errors

import (
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeAuth        ErrorType = "AUTH"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeTransport   ErrorType = "TRANSPORT"
	ErrorTypeEmptyResult ErrorType = "EMPTY_RESULT"
	ErrorTypeParse       ErrorType = "PARSE"
	ErrorTypeInternal    ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewAuth creates an authentication error
func NewAuth(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeAuth,
		Message: message,
		Err:     err,
	}
}

// NewConflict creates a conflict error (e.g. duplicate create)
func NewConflict(message string) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewTransport creates a transport error carrying the provider's message
func NewTransport(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewEmptyResult creates an empty-result error: the endpoint was reachable
// but produced no usable output.
func NewEmptyResult(message string) error {
	return &AppError{
		Type:    ErrorTypeEmptyResult,
		Message: message,
	}
}

// NewParse creates a parse error for malformed structured responses
func NewParse(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsAuth checks if an error is an authentication error
func IsAuth(err error) bool { return isType(err, ErrorTypeAuth) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return isType(err, ErrorTypeConflict) }

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool { return isType(err, ErrorTypeTransport) }

// IsEmptyResult checks if an error is an empty-result error
func IsEmptyResult(err error) bool { return isType(err, ErrorTypeEmptyResult) }

// IsParse checks if an error is a parse error
func IsParse(err error) bool { return isType(err, ErrorTypeParse) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return isType(err, ErrorTypeInternal) }
