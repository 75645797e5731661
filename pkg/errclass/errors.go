// Package errclass defines the stable error classes reported by filechanger.
package errclass

import (
	"errors"
	"fmt"
)

// Error is a stable, machine-readable error class with an optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new Error with the same Code carrying cause.
func (e *Error) Wrap(cause error, msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Cause: cause}
}

// Error classes.
var (
	ErrTargetNotFound = &Error{Code: "E_TARGET_NOT_FOUND"}
	ErrWrongKind      = &Error{Code: "E_WRONG_KIND"}
	ErrRenameFailed   = &Error{Code: "E_RENAME_FAILED"}
	ErrUnexpected     = &Error{Code: "E_UNEXPECTED"}
	ErrConfigInvalid  = &Error{Code: "E_CONFIG_INVALID"}
)

// IsValidation reports whether err was raised before any rename was
// attempted because the target or the configuration was unusable.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrWrongKind) ||
		errors.Is(err, ErrConfigInvalid)
}

// Code returns the class code of err, or ErrUnexpected's code when err
// carries no class.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnexpected.Code
}
