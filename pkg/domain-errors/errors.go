// Package domainerrors provides coded errors for the review domain. Services
// construct these at the boundary between infrastructure facts (sentinel
// errors) and callers; transports map codes to wire representations.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are stable identifiers that survive
// wrapping, so callers branch on Is(err, code) rather than string matching.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeNotFound          Code = "not_found"
	CodeAlreadyFinalized  Code = "already_finalized"
	CodeInvalidTransition Code = "invalid_transition"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal_error"
)

// Error carries a code plus a human-readable message. The message is safe to
// log; transports decide whether it is safe to return to clients.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause for
// errors.Is/errors.As chains.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors so transports never leak raw internals.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
