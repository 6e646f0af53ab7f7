// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the client-facing error response.
type Kind string

const (
	Validation            Kind = "validation"
	NotFound              Kind = "not_found"
	InsufficientInventory Kind = "insufficient_inventory"
	Conflict              Kind = "conflict"
	InvalidAction         Kind = "invalid_action"
	Decode                Kind = "decode"
	Transport             Kind = "transport"
	RateLimited           Kind = "rate_limited"
	Internal              Kind = "internal"
)

// Error is a classified failure. Message is the human-readable text
// sent to the client; Err is the optional underlying cause, which is
// logged but never sent.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a formatted message. The cause
// stays reachable through errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// InvalidField reports a present but unacceptable request field.
func InvalidField(field, format string, args ...any) *Error {
	return &Error{
		Kind:    Validation,
		Field:   field,
		Message: field + ": " + fmt.Sprintf(format, args...),
	}
}

// MissingField reports a required request field that was absent.
func MissingField(field string) *Error {
	return &Error{
		Kind:    Validation,
		Field:   field,
		Message: "missing required field: " + field,
	}
}

// ShowingNotFound reports a reference to a showing id with no record.
func ShowingNotFound(id int64) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf("showing %d not found", id)}
}

// NotEnoughTickets reports a sale that would overdraw inventory.
func NotEnoughTickets(requested, available int64) *Error {
	return &Error{
		Kind:    InsufficientInventory,
		Message: fmt.Sprintf("not enough tickets available: requested %d, %d remaining", requested, available),
	}
}

// UnknownAction reports a request whose action has no handler.
func UnknownAction(action string) *Error {
	return &Error{Kind: InvalidAction, Message: fmt.Sprintf("invalid action %q", action)}
}

// KindOf returns the kind of the first *Error in err's chain, or
// Internal when there is none. KindOf(nil) is the empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return Internal
}

// Is reports whether err classifies as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing text for err. Classified errors
// contribute their own message; unclassified errors collapse to a
// generic internal-error text so storage details never leak.
func Message(err error) string {
	var classified *Error
	if errors.As(err, &classified) && classified.Kind != Internal {
		return classified.Error()
	}
	return "internal error"
}
