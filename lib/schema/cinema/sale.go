// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package cinema

import (
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
)

// SaleRequest asks the store to sell Tickets seats of a showing.
type SaleRequest struct {
	ShowingID    int64
	Tickets      int64
	CustomerName string
}

// Validate rejects non-positive identifiers and quantities. The
// customer name is free text and is not checked.
func (r SaleRequest) Validate() error {
	if r.ShowingID <= 0 {
		return fault.InvalidField(FieldMovieID, "must be a positive integer, got %d", r.ShowingID)
	}
	if r.Tickets <= 0 {
		return fault.InvalidField(FieldTickets, "must be a positive integer, got %d", r.Tickets)
	}
	return nil
}

// Sale is an immutable record of a completed purchase. Total is fixed
// when the sale commits (tickets × price at that moment) and is never
// recomputed, even if the showing's price later changes.
type Sale struct {
	ID           int64
	ShowingID    int64
	CustomerName string
	Tickets      int64
	Total        Amount
	SoldAt       time.Time
}

// Record renders the sale as a keyed wire map.
func (s Sale) Record() map[string]any {
	return map[string]any{
		FieldSaleID:       s.ID,
		FieldMovieID:      s.ShowingID,
		FieldCustomerName: s.CustomerName,
		FieldTickets:      s.Tickets,
		FieldTotal:        s.Total.Float64(),
		FieldSoldAt:       s.SoldAt.UTC().Format(time.RFC3339),
	}
}

// SaleEvent is published after a sale commits, carrying enough context
// for downstream consumers (accounting exports, dashboards) to act
// without querying the store.
type SaleEvent struct {
	SaleID       int64   `json:"sale_id"`
	ShowingID    int64   `json:"movie_id"`
	Title        string  `json:"title,omitempty"`
	CustomerName string  `json:"customer_name"`
	Tickets      int64   `json:"tickets"`
	Total        float64 `json:"total"`
	TotalCents   int64   `json:"total_cents"`
	SoldAt       string  `json:"sold_at"`
}

// NewSaleEvent builds the event for a committed sale.
func NewSaleEvent(sale Sale, title string) SaleEvent {
	return SaleEvent{
		SaleID:       sale.ID,
		ShowingID:    sale.ShowingID,
		Title:        title,
		CustomerName: sale.CustomerName,
		Tickets:      sale.Tickets,
		Total:        sale.Total.Float64(),
		TotalCents:   int64(sale.Total),
		SoldAt:       sale.SoldAt.UTC().Format(time.RFC3339Nano),
	}
}
