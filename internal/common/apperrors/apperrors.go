package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies an operation failure.
type Code string

const (
	CodeInvalidDuration   Code = "INVALID_DURATION"
	CodeDuplicateID       Code = "DUPLICATE_ID"
	CodeNotFound          Code = "NOT_FOUND"
	CodeGiveawayNotActive Code = "GIVEAWAY_NOT_ACTIVE"
	CodeNotAParticipant   Code = "NOT_A_PARTICIPANT"
	CodeTransport         Code = "TRANSPORT_ERROR"
	CodeStore             Code = "STORE_ERROR"
)

// Error is a typed application error carrying a classification code and
// optionally the underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Newf creates an error with the given code and a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first typed error in the chain, or ""
// when the error is untyped.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
