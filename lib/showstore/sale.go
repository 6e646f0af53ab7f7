// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package showstore

import (
	"errors"
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
)

// planSale decides a sale against the locked showing row. Both
// backends call it between reading and writing inside one
// transaction, so the comparison sees the committed inventory.
func planSale(showing cinema.Showing, request cinema.SaleRequest, now time.Time) (cinema.Sale, error) {
	if request.Tickets > showing.TicketsAvailable {
		return cinema.Sale{}, fault.NotEnoughTickets(request.Tickets, showing.TicketsAvailable)
	}
	total, ok := showing.TicketPrice.Times(request.Tickets)
	if !ok {
		return cinema.Sale{}, fault.InvalidField(cinema.FieldTickets,
			"%d tickets at %s exceeds the largest representable total", request.Tickets, showing.TicketPrice)
	}
	return cinema.Sale{
		ShowingID:    showing.ID,
		CustomerName: request.CustomerName,
		Tickets:      request.Tickets,
		Total:        total,
		SoldAt:       now.UTC(),
	}, nil
}

// isDomainError reports whether err already carries a fault kind and
// should reach the caller unchanged.
func isDomainError(err error) bool {
	var domainError *fault.Error
	return errors.As(err, &domainError)
}
