// Package errors defines the coded errors shared by the patina libraries,
// the CLI and the HTTP API.
//
// Every precondition failure carries an INVALID_* code and is raised before
// any work starts. Missing presets and files are NOT_FOUND and
// FILE_NOT_FOUND; a crack generator that exceeds its fork depth limit
// reports RESOURCE_EXHAUSTED. The HTTP server maps codes to status codes
// and the CLI prints them as "CODE: message".
//
//	err := errors.New(errors.ErrCodeInvalidSize, "field width must be positive, got %d", w)
//	if errors.IsInvalid(err) {
//	    // reject the request
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidArgument Code = "INVALID_ARGUMENT"
	ErrCodeInvalidSize     Code = "INVALID_SIZE"
	ErrCodeInvalidColor    Code = "INVALID_COLOR"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidFilter   Code = "INVALID_FILTER"
	ErrCodeInvalidPreset   Code = "INVALID_PRESET"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Resource limits
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var invalidCodes = map[Code]bool{
	ErrCodeInvalidInput:    true,
	ErrCodeInvalidArgument: true,
	ErrCodeInvalidSize:     true,
	ErrCodeInvalidColor:    true,
	ErrCodeInvalidFormat:   true,
	ErrCodeInvalidFilter:   true,
	ErrCodeInvalidPreset:   true,
	ErrCodeInvalidPath:     true,
}

// Error is a coded error. Field names the offending parameter, when there
// is one, in its serialized form (e.g. "crack_width").
type Error struct {
	Code    Code
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithField sets the offending parameter and returns e.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Invalid creates an INVALID_ARGUMENT error for the named parameter.
func Invalid(field, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...), Field: field}
}

// as finds the outermost *Error in err's chain.
func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	e, ok := as(err)
	return ok && e.Code == code
}

// IsInvalid reports whether err carries any of the INVALID_* codes.
func IsInvalid(err error) bool {
	return invalidCodes[GetCode(err)]
}

// GetCode returns the code of err, or "" for uncoded errors.
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// FieldOf returns the parameter err is about, or "". Wrapping errors that
// name no field are looked through.
func FieldOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Field != "" {
			return e.Field
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns the message of a coded error without its code, and
// the plain text of anything else.
func UserMessage(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}
