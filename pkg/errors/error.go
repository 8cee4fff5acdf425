// Package errors provides coded application errors that map onto HTTP and gRPC statuses.
package errors

import (
	"errors"
	"fmt"
)

var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// AppError carries a stable code next to a client safe message.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.err)
}

func (e *AppError) Code() string { return e.code }

// Message returns the message without the wrapped cause.
func (e *AppError) Message() string { return e.message }

func (e *AppError) Unwrap() error { return e.err }

// NewAppError creates an AppError.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

// Wrap wraps err, keeping the code of an inner AppError when present.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf returns the code of the outermost AppError in err's chain, or ErrInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.code
	}
	return ErrInternal
}

// IsServerFault reports whether err maps to a 5xx status.
func IsServerFault(err error) bool {
	return ToHTTPStatus(CodeOf(err)) >= 500
}
