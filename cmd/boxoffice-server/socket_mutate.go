// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
	"github.com/boxoffice-pos/boxoffice/lib/service"
)

// showingFields reads the six catalog fields shared by add_movie and
// update_movie. Fields are checked in wire order so the first missing
// or malformed one is the one reported.
func showingFields(request *service.Request) (cinema.ShowingFields, error) {
	var fields cinema.ShowingFields

	title, err := request.String(cinema.FieldTitle)
	if err != nil {
		return fields, err
	}
	room, err := request.Int(cinema.FieldRoom)
	if err != nil {
		return fields, err
	}
	if room < cinema.MinRoom || room > cinema.MaxRoom {
		return fields, fault.InvalidField(cinema.FieldRoom, "must be between %d and %d, got %d", cinema.MinRoom, cinema.MaxRoom, room)
	}
	opening, err := request.String(cinema.FieldReleaseDate)
	if err != nil {
		return fields, err
	}
	closing, err := request.String(cinema.FieldEndDate)
	if err != nil {
		return fields, err
	}
	tickets, err := request.Int(cinema.FieldTicketsAvailable)
	if err != nil {
		return fields, err
	}
	price, err := request.Float(cinema.FieldTicketPrice)
	if err != nil {
		return fields, err
	}
	amount, err := cinema.AmountFromFloat(price)
	if err != nil {
		return fields, fault.InvalidField(cinema.FieldTicketPrice, "%v", err)
	}

	fields = cinema.ShowingFields{
		Title:            title,
		Room:             int(room),
		OpeningDate:      opening,
		ClosingDate:      closing,
		TicketsAvailable: tickets,
		TicketPrice:      amount,
	}
	return fields, fields.Validate()
}

// handleAddMovie stores a new showing and returns its identifier.
func (b *BoxOfficeService) handleAddMovie(ctx context.Context, request *service.Request) (service.Result, error) {
	fields, err := showingFields(request)
	if err != nil {
		return nil, err
	}
	id, err := b.store.InsertShowing(ctx, fields)
	if err != nil {
		return nil, err
	}
	b.logger.Info("showing added", "id", id, "title", fields.Title, "room", fields.Room)
	return service.Result{cinema.FieldID: id}, nil
}

// handleUpdateMovie replaces every field of an existing showing.
func (b *BoxOfficeService) handleUpdateMovie(ctx context.Context, request *service.Request) (service.Result, error) {
	id, err := request.Int(cinema.FieldID)
	if err != nil {
		return nil, err
	}
	fields, err := showingFields(request)
	if err != nil {
		return nil, err
	}
	if err := b.store.UpdateShowing(ctx, id, fields); err != nil {
		return nil, err
	}
	b.logger.Info("showing updated", "id", id)
	return nil, nil
}

// handleDeleteMovie removes a showing. Whether its sales block the
// delete depends on the store's delete policy.
func (b *BoxOfficeService) handleDeleteMovie(ctx context.Context, request *service.Request) (service.Result, error) {
	id, err := request.Int(cinema.FieldID)
	if err != nil {
		return nil, err
	}
	if err := b.store.DeleteShowing(ctx, id); err != nil {
		return nil, err
	}
	b.logger.Info("showing deleted", "id", id)
	return nil, nil
}

// handleSellTicket sells seats and returns the amount charged. The
// inventory check and decrement happen inside one store transaction;
// this handler holds no lock of its own.
func (b *BoxOfficeService) handleSellTicket(ctx context.Context, request *service.Request) (service.Result, error) {
	showingID, err := request.Int(cinema.FieldMovieID)
	if err != nil {
		return nil, err
	}
	tickets, err := request.Int(cinema.FieldTickets)
	if err != nil {
		return nil, err
	}
	customer, err := request.String(cinema.FieldCustomerName)
	if err != nil {
		return nil, err
	}

	sale, err := b.store.SellTickets(ctx, cinema.SaleRequest{
		ShowingID:    showingID,
		Tickets:      tickets,
		CustomerName: customer,
	})
	if err != nil {
		return nil, err
	}
	b.salesCompleted.Add(1)
	b.logger.Info("tickets sold",
		"sale_id", sale.ID,
		"movie_id", sale.ShowingID,
		"tickets", sale.Tickets,
		"total", sale.Total.String(),
	)
	b.publishSale(ctx, sale)

	return service.Result{
		cinema.FieldTotal:  sale.Total.Float64(),
		cinema.FieldSaleID: sale.ID,
	}, nil
}

// publishSale hands a committed sale to the feed. The title lookup is
// a separate read; if the showing has been deleted since, the event
// goes out without a title.
func (b *BoxOfficeService) publishSale(ctx context.Context, sale cinema.Sale) {
	if !b.feed.Enabled() {
		return
	}
	title := ""
	if showing, err := b.store.GetShowing(ctx, sale.ShowingID); err == nil {
		title = showing.Title
	} else if !fault.Is(err, fault.NotFound) {
		b.logger.Warn("looking up title for sale event", "sale_id", sale.ID, "error", err)
	}
	b.feed.Enqueue(cinema.NewSaleEvent(sale, title))
}
