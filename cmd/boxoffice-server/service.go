// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/boxoffice-pos/boxoffice/lib/salefeed"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
	"github.com/boxoffice-pos/boxoffice/lib/service"
	"github.com/boxoffice-pos/boxoffice/lib/showstore"
)

// movieLayout selects how get_movies renders showings.
type movieLayout string

const (
	// layoutRecords renders each showing as an object keyed by field
	// name.
	layoutRecords movieLayout = "records"

	// layoutRows renders each showing as a positional array, the
	// shape older desktop clients index into.
	layoutRows movieLayout = "rows"
)

func parseMovieLayout(name string) (movieLayout, error) {
	switch movieLayout(name) {
	case "", layoutRecords:
		return layoutRecords, nil
	case layoutRows:
		return layoutRows, nil
	default:
		return "", fmt.Errorf("unknown movie layout %q (want %q or %q)", name, layoutRecords, layoutRows)
	}
}

// BoxOfficeService holds what the action handlers share. The store is
// the only mutable state; handlers take no locks of their own and rely
// on store transactions for consistency between sessions.
type BoxOfficeService struct {
	store       showstore.Store
	feed        *salefeed.Feed
	socket      *service.SocketServer
	movieLayout movieLayout
	logger      *slog.Logger

	salesCompleted atomic.Uint64
}

// registerActions registers all socket API actions on the server.
func (b *BoxOfficeService) registerActions(server *service.SocketServer) {
	// Queries.
	server.Handle(cinema.ActionGetMovies, b.handleGetMovies)
	server.Handle(cinema.ActionGetSales, b.handleGetSales)
	server.Handle(cinema.ActionStatus, b.handleStatus)

	// Catalog mutations.
	server.Handle(cinema.ActionAddMovie, b.handleAddMovie)
	server.Handle(cinema.ActionUpdateMovie, b.handleUpdateMovie)
	server.Handle(cinema.ActionDeleteMovie, b.handleDeleteMovie)

	// Sales.
	server.Handle(cinema.ActionSellTicket, b.handleSellTicket)
}
