// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error kinds that cross the domain boundary.
// Validation and NotFound errors carry a message that is safe to show to the
// author; Conflict and Unexpected errors never expose their cause.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding how to react.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindUnexpected Kind = "unexpected"
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps form field names to messages for inline display.
	Fields map[string]string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports user-correctable input problems.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFound reports a referenced record that does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a unique-constraint race.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Unexpected wraps any lower-layer failure that has no better classification.
func Unexpected(message string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// SafeMessage returns the message shown to end users: the domain message for
// validation and not-found errors, a generic one for everything else.
func SafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindValidation || e.Kind == KindNotFound) {
		return e.Message
	}
	return "Something went wrong. Please try again later."
}
