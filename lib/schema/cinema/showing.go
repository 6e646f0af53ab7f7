// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package cinema

import (
	"strings"
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
)

// Physical screening rooms. Rooms outside this range do not exist.
const (
	MinRoom = 1
	MaxRoom = 7
)

// DateLayout is the calendar-date format used on the wire and in
// storage.
const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD calendar date and returns it in
// canonical form.
func ParseDate(value string) (string, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return parsed.Format(DateLayout), nil
}

// ShowingFields is the caller-supplied part of a showing, used by the
// add and update operations.
//
// ClosingDate is expected to be on or after OpeningDate, but nothing
// enforces it: clients that schedule runs own that check.
type ShowingFields struct {
	Title            string
	Room             int
	OpeningDate      string
	ClosingDate      string
	TicketsAvailable int64
	TicketPrice      Amount
}

// Validate checks the invariants the store relies on. Errors are
// fault.Validation errors naming the offending wire field.
func (f ShowingFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fault.InvalidField(FieldTitle, "must not be empty")
	}
	if f.Room < MinRoom || f.Room > MaxRoom {
		return fault.InvalidField(FieldRoom, "must be between %d and %d, got %d", MinRoom, MaxRoom, f.Room)
	}
	if _, err := ParseDate(f.OpeningDate); err != nil {
		return fault.InvalidField(FieldReleaseDate, "must be a YYYY-MM-DD date, got %q", f.OpeningDate)
	}
	if _, err := ParseDate(f.ClosingDate); err != nil {
		return fault.InvalidField(FieldEndDate, "must be a YYYY-MM-DD date, got %q", f.ClosingDate)
	}
	if f.TicketsAvailable < 0 {
		return fault.InvalidField(FieldTicketsAvailable, "must not be negative, got %d", f.TicketsAvailable)
	}
	if f.TicketPrice < 0 {
		return fault.InvalidField(FieldTicketPrice, "must not be negative, got %s", f.TicketPrice)
	}
	return nil
}

// Showing is a stored movie run.
type Showing struct {
	ID int64
	ShowingFields
}

// Record renders the showing as a keyed wire map.
func (s Showing) Record() map[string]any {
	return map[string]any{
		FieldID:               s.ID,
		FieldTitle:            s.Title,
		FieldRoom:             s.Room,
		FieldReleaseDate:      s.OpeningDate,
		FieldEndDate:          s.ClosingDate,
		FieldTicketsAvailable: s.TicketsAvailable,
		FieldTicketPrice:      s.TicketPrice.Float64(),
	}
}

// Row renders the showing as a positional array in column order:
// id, title, room, release date, end date, tickets, price. This is the
// layout the original desktop client indexes into.
func (s Showing) Row() []any {
	return []any{
		s.ID,
		s.Title,
		s.Room,
		s.OpeningDate,
		s.ClosingDate,
		s.TicketsAvailable,
		s.TicketPrice.Float64(),
	}
}

// DefaultCatalog returns the showings seeded into an empty store.
func DefaultCatalog() []ShowingFields {
	return []ShowingFields{
		{Title: "Inception", Room: 1, OpeningDate: "2020-01-01", ClosingDate: "2025-12-31", TicketsAvailable: 100, TicketPrice: 12000},
		{Title: "Avengers", Room: 2, OpeningDate: "2019-05-03", ClosingDate: "2025-12-31", TicketsAvailable: 150, TicketPrice: 10000},
		{Title: "Titanic", Room: 3, OpeningDate: "1997-12-19", ClosingDate: "2025-12-31", TicketsAvailable: 80, TicketPrice: 9000},
		{Title: "Joker", Room: 4, OpeningDate: "2019-10-04", ClosingDate: "2025-12-31", TicketsAvailable: 120, TicketPrice: 11000},
		{Title: "Black Panther", Room: 5, OpeningDate: "2018-02-16", ClosingDate: "2025-12-31", TicketsAvailable: 130, TicketPrice: 10000},
		{Title: "Interstellar", Room: 6, OpeningDate: "2014-11-07", ClosingDate: "2025-12-31", TicketsAvailable: 75, TicketPrice: 9500},
		{Title: "Avatar", Room: 7, OpeningDate: "2009-12-18", ClosingDate: "2025-12-31", TicketsAvailable: 100, TicketPrice: 11500},
	}
}
