// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package cinema

// Wire field names. These match the protocol spoken by existing box
// office clients and must not change.
const (
	FieldAction           = "action"
	FieldStatus           = "status"
	FieldMessage          = "message"
	FieldID               = "id"
	FieldTitle            = "title"
	FieldRoom             = "cinema_room"
	FieldReleaseDate      = "release_date"
	FieldEndDate          = "end_date"
	FieldTicketsAvailable = "tickets_available"
	FieldTicketPrice      = "ticket_price"
	FieldMovieID          = "movie_id"
	FieldTickets          = "tickets"
	FieldCustomerName     = "customer_name"
	FieldTotal            = "total"
	FieldSaleID           = "sale_id"
	FieldMovies           = "movies"
	FieldSales            = "sales"
	FieldSoldAt           = "sold_at"
)

// Action names understood by the box office server.
const (
	ActionGetMovies   = "get_movies"
	ActionAddMovie    = "add_movie"
	ActionUpdateMovie = "update_movie"
	ActionDeleteMovie = "delete_movie"
	ActionSellTicket  = "sell_ticket"
	ActionGetSales    = "get_sales"
	ActionStatus      = "status"
)
