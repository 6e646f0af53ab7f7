// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
	"github.com/boxoffice-pos/boxoffice/lib/service"
)

// handleGetMovies lists every showing in identifier order.
func (b *BoxOfficeService) handleGetMovies(ctx context.Context, request *service.Request) (service.Result, error) {
	showings, err := b.store.ListShowings(ctx)
	if err != nil {
		return nil, err
	}

	movies := make([]any, 0, len(showings))
	for _, showing := range showings {
		if b.movieLayout == layoutRows {
			movies = append(movies, showing.Row())
		} else {
			movies = append(movies, showing.Record())
		}
	}
	return service.Result{cinema.FieldMovies: movies}, nil
}

// handleGetSales lists recorded sales. With movie_id, only that
// showing's sales are returned; the showing itself need not still
// exist.
func (b *BoxOfficeService) handleGetSales(ctx context.Context, request *service.Request) (service.Result, error) {
	showingID, present, err := request.OptionalInt(cinema.FieldMovieID)
	if err != nil {
		return nil, err
	}
	if present && showingID <= 0 {
		return nil, fault.InvalidField(cinema.FieldMovieID, "must be a positive integer, got %d", showingID)
	}

	sales, err := b.store.ListSales(ctx, showingID)
	if err != nil {
		return nil, err
	}
	records := make([]any, 0, len(sales))
	for _, sale := range sales {
		records = append(records, sale.Record())
	}
	return service.Result{cinema.FieldSales: records}, nil
}

// handleStatus is a liveness check. It reports counters only, nothing
// about the catalog.
func (b *BoxOfficeService) handleStatus(ctx context.Context, request *service.Request) (service.Result, error) {
	return service.Result{
		"uptime_seconds":     b.socket.Uptime().Seconds(),
		"active_connections": b.socket.ActiveConnections(),
		"requests_served":    b.socket.RequestsServed(),
		"sales_completed":    b.salesCompleted.Load(),
	}, nil
}
