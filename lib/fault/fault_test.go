// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := ShowingNotFound(42)
	wrapped := fmt.Errorf("deleting showing: %w", fmt.Errorf("store: %w", base))

	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf = %q, want %q", got, NotFound)
	}
	if !Is(wrapped, NotFound) {
		t.Error("Is(wrapped, NotFound) = false")
	}
	if Is(wrapped, Validation) {
		t.Error("Is(wrapped, Validation) = true")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(io.ErrUnexpectedEOF); got != Internal {
		t.Errorf("KindOf(plain error) = %q, want %q", got, Internal)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
	if Is(nil, Internal) {
		t.Error("Is(nil, Internal) = true")
	}
}

func TestMissingFieldNamesField(t *testing.T) {
	err := MissingField("customer_name")
	if err.Field != "customer_name" {
		t.Errorf("Field = %q", err.Field)
	}
	if err.Error() != "missing required field: customer_name" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestInvalidFieldMessage(t *testing.T) {
	err := InvalidField("cinema_room", "must be between %d and %d, got %d", 1, 7, 9)
	want := "cinema_room: must be between 1 and 7, got 9"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Kind != Validation {
		t.Errorf("Kind = %q", err.Kind)
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	storageErr := errors.New("disk I/O error at page 1234")
	if got := Message(fmt.Errorf("selling: %w", storageErr)); got != "internal error" {
		t.Errorf("Message(unclassified) = %q", got)
	}
	if got := Message(Wrap(Internal, storageErr, "commit failed")); got != "internal error" {
		t.Errorf("Message(Internal) = %q", got)
	}
	if got := Message(NotEnoughTickets(1000, 70)); got != "not enough tickets available: requested 1000, 70 remaining" {
		t.Errorf("Message(inventory) = %q", got)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := io.ErrClosedPipe
	err := Wrap(Transport, cause, "writing response")
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("errors.Is did not find the cause")
	}
	if err.Error() != "writing response" {
		t.Errorf("Error() = %q", err.Error())
	}
}
