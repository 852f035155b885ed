// Package errors provides structured error types for flowlens.
//
// The CLI prints [UserMessage] and the code; the HTTP API answers with
// [HTTPStatus] and a JSON body holding both. Codes are grouped by name:
// INVALID_* for rejected input, *_NOT_FOUND for missing resources, NO_DATA
// for a dataset without edges and INTERNAL_ERROR for everything else.
//
// Malformed rows, unparseable weights and unparseable coordinates are not
// errors; the core degrades them silently and never reports a code for them.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidMapping, "origin and destination are both %q", col)
//	if errors.Is(err, errors.ErrCodeInvalidMapping) {
//	    // keep the previous state
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code. Codes are part of the HTTP API
// and never change meaning.
type Code string

const (
	// ErrCodeInvalidInput rejects a malformed request or parameter.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	// ErrCodeInvalidMapping rejects a mapping whose origin and destination
	// name the same column.
	ErrCodeInvalidMapping Code = "INVALID_MAPPING"
	ErrCodeInvalidView    Code = "INVALID_VIEW"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	// ErrCodeInvalidColumn rejects a mapping that names a column the
	// dataset does not have.
	ErrCodeInvalidColumn Code = "INVALID_COLUMN"

	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"
	ErrCodeWorkspaceNotFound Code = "WORKSPACE_NOT_FOUND"

	// ErrCodeNoData reports a dataset that aggregated to no edges. It is
	// reportable, not fatal.
	ErrCodeNoData Code = "NO_DATA"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// statusByCode is the HTTP status of each code. Unlisted codes are 500.
var statusByCode = map[Code]int{
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInvalidMapping:    http.StatusBadRequest,
	ErrCodeInvalidView:       http.StatusBadRequest,
	ErrCodeInvalidFormat:     http.StatusBadRequest,
	ErrCodeInvalidConfig:     http.StatusBadRequest,
	ErrCodeInvalidColumn:     http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeFileNotFound:      http.StatusNotFound,
	ErrCodeWorkspaceNotFound: http.StatusNotFound,
	ErrCodeNoData:            http.StatusUnprocessableEntity,
	ErrCodeUnsupported:       http.StatusNotImplemented,
}

// HTTPStatus returns the status the API answers c with.
func (c Code) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error carries a code, a message for the user and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error renders "CODE: message" followed by the cause, if any.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of a coded error without its code and
// cause. Other errors are returned as their Error string.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err to a status code. Errors without a code are 500.
func HTTPStatus(err error) int {
	return GetCode(err).HTTPStatus()
}
