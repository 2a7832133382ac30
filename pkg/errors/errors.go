package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

// The API surfaces exactly two error kinds: malformed input or violated
// business preconditions (400), and insufficient privilege (403).
const (
	ErrCodeInput  ErrorCode = "INPUT_ERROR"
	ErrCodeAccess ErrorCode = "ACCESS_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInputError creates an error for malformed input, non-existent
// referenced entities and violated business preconditions.
func NewInputError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewAccessError creates an error for insufficiently privileged actors.
func NewAccessError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeAccess,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// WrapInput wraps an existing error as an input error.
func WrapInput(err error, message string) *AppError {
	return &AppError{
		Code:       ErrCodeInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Cause:      err,
	}
}

// IsInput checks whether err is an input error.
func IsInput(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == ErrCodeInput
}

// IsAccess checks whether err is an access error.
func IsAccess(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == ErrCodeAccess
}

// GetAppError extracts AppError from the error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
