package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/brendan.keane/stackcheck/pkg/apiclient"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeOpenAPI    ErrorType = "openapi"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured error with context
type AppError struct {
	Type    ErrorType
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same type
func (e *AppError) Is(target error) bool {
	if targetErr, ok := target.(*AppError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
		Cause:   err,
	}
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

func Newf(errType ErrorType, format string, args ...interface{}) *AppError {
	return New(errType, fmt.Sprintf(format, args...))
}

// FromClientError converts a request failure into an AppError. Status 0
// becomes a network error; anything else is an api error carrying the status
// and payload. Errors that are not *apiclient.Error are returned unchanged.
func FromClientError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	clientErr, ok := apiclient.AsError(err)
	if !ok {
		return err
	}

	if clientErr.StatusCode == 0 {
		e := New(ErrorTypeNetwork, clientErr.Message).
			WithContext("url", clientErr.URL).
			WithContext("method", clientErr.Method).
			WithContext("failure", string(clientErr.Kind))
		e.Cause = clientErr
		if clientErr.Kind == apiclient.KindTransport {
			e.WithContext("suggestion", "check that the API is running and --api-url is correct")
		}
		return e
	}

	e := New(ErrorTypeAPI, clientErr.Message).
		WithContext("url", clientErr.URL).
		WithContext("method", clientErr.Method).
		WithContext("status", clientErr.StatusCode)
	if clientErr.Payload != nil && !clientErr.Payload.IsEmpty() {
		e.WithContext("payload", string(clientErr.Payload.Raw))
	}
	e.Cause = clientErr
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GetType returns the error type, or ErrorTypeInternal if not an AppError
func GetType(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetContext returns context information from the error
func GetContext(err error) map[string]interface{} {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Context
	}
	return nil
}
