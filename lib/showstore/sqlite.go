// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package showstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
	"github.com/boxoffice-pos/boxoffice/lib/sqlitepool"
)

// sqliteSchema is applied on every new connection. AUTOINCREMENT keeps
// identifiers of deleted rows from being handed out again. The sales
// reference to movies is declared but not enforced (the pool runs with
// foreign_keys=OFF); the delete policy decides what happens to it.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS movies (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	title              TEXT    NOT NULL,
	cinema_room        INTEGER NOT NULL CHECK (cinema_room BETWEEN 1 AND 7),
	release_date       TEXT    NOT NULL,
	end_date           TEXT    NOT NULL,
	tickets_available  INTEGER NOT NULL CHECK (tickets_available >= 0),
	ticket_price_cents INTEGER NOT NULL CHECK (ticket_price_cents >= 0)
);

CREATE TABLE IF NOT EXISTS sales (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	movie_id          INTEGER NOT NULL REFERENCES movies(id),
	customer_name     TEXT    NOT NULL,
	number_of_tickets INTEGER NOT NULL CHECK (number_of_tickets > 0),
	total_cents       INTEGER NOT NULL,
	sold_at           TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS sales_movie_id ON sales (movie_id);
`

const showingColumns = "id, title, cinema_room, release_date, end_date, tickets_available, ticket_price_cents"

const saleColumns = "id, movie_id, customer_name, number_of_tickets, total_cents, sold_at"

type sqliteStore struct {
	pool         *sqlitepool.Pool
	deletePolicy DeletePolicy
	clock        clock.Clock
	logger       *slog.Logger
}

func openSQLite(cfg Config) (*sqliteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("showstore: sqlite backend requires a database path")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("showstore: %w", err)
	}

	// Connections prepare lazily. Take one now so that a bad path or
	// schema fails at startup instead of on the first request.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("showstore: initializing schema: %w", err)
	}
	pool.Put(conn)

	return &sqliteStore{
		pool:         pool,
		deletePolicy: cfg.DeletePolicy,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}, nil
}

func (s *sqliteStore) Close() error {
	return s.pool.Close()
}

func (s *sqliteStore) ListShowings(ctx context.Context) ([]cinema.Showing, error) {
	showings := []cinema.Showing{}
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT "+showingColumns+" FROM movies ORDER BY id", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				showings = append(showings, scanSQLiteShowing(stmt))
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing showings: %w", err)
	}
	return showings, nil
}

func (s *sqliteStore) GetShowing(ctx context.Context, id int64) (cinema.Showing, error) {
	var showing cinema.Showing
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		var err error
		showing, err = selectSQLiteShowing(conn, id)
		return err
	})
	return showing, err
}

func (s *sqliteStore) InsertShowing(ctx context.Context, fields cinema.ShowingFields) (int64, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		var err error
		id, err = insertSQLiteShowing(conn, fields)
		return err
	})
	if err != nil {
		return 0, classifySQLiteError(err, "inserting showing")
	}
	return id, nil
}

func (s *sqliteStore) UpdateShowing(ctx context.Context, id int64, fields cinema.ShowingFields) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`UPDATE movies
			    SET title = ?, cinema_room = ?, release_date = ?, end_date = ?,
			        tickets_available = ?, ticket_price_cents = ?
			  WHERE id = ?`,
			&sqlitex.ExecOptions{Args: append(showingArgs(fields), id)})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return fault.ShowingNotFound(id)
		}
		return nil
	})
	if err != nil {
		return classifySQLiteError(err, "updating showing")
	}
	return nil
}

func (s *sqliteStore) DeleteShowing(ctx context.Context, id int64) error {
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		if s.deletePolicy == DeleteRestrict {
			var salesCount int64
			err := sqlitex.Execute(conn, "SELECT COUNT(*) FROM sales WHERE movie_id = ?", &sqlitex.ExecOptions{
				Args: []any{id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					salesCount = stmt.ColumnInt64(0)
					return nil
				},
			})
			if err != nil {
				return err
			}
			if salesCount > 0 {
				return fault.New(fault.Conflict, "showing %d has %d recorded sales and cannot be deleted", id, salesCount)
			}
		}
		if err := sqlitex.Execute(conn, "DELETE FROM movies WHERE id = ?", &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return fault.ShowingNotFound(id)
		}
		return nil
	})
	if err != nil {
		return classifySQLiteError(err, "deleting showing")
	}
	return nil
}

func (s *sqliteStore) SellTickets(ctx context.Context, request cinema.SaleRequest) (cinema.Sale, error) {
	if err := request.Validate(); err != nil {
		return cinema.Sale{}, err
	}

	var sale cinema.Sale
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		showing, err := selectSQLiteShowing(conn, request.ShowingID)
		if err != nil {
			return err
		}
		sale, err = planSale(showing, request, s.clock.Now())
		if err != nil {
			return err
		}

		err = sqlitex.Execute(conn,
			"UPDATE movies SET tickets_available = tickets_available - ? WHERE id = ?",
			&sqlitex.ExecOptions{Args: []any{sale.Tickets, sale.ShowingID}})
		if err != nil {
			return err
		}

		err = sqlitex.Execute(conn,
			`INSERT INTO sales (movie_id, customer_name, number_of_tickets, total_cents, sold_at)
			 VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				sale.ShowingID,
				sale.CustomerName,
				sale.Tickets,
				int64(sale.Total),
				sale.SoldAt.Format(time.RFC3339Nano),
			}})
		if err != nil {
			return err
		}
		sale.ID = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return cinema.Sale{}, classifySQLiteError(err, "selling tickets")
	}
	return sale, nil
}

func (s *sqliteStore) ListSales(ctx context.Context, showingID int64) ([]cinema.Sale, error) {
	query := "SELECT " + saleColumns + " FROM sales"
	var args []any
	if showingID != 0 {
		query += " WHERE movie_id = ?"
		args = append(args, showingID)
	}
	query += " ORDER BY id"

	sales := []cinema.Sale{}
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				soldAt, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(5))
				if err != nil {
					return fmt.Errorf("sale %d: parsing sold_at: %w", stmt.ColumnInt64(0), err)
				}
				sales = append(sales, cinema.Sale{
					ID:           stmt.ColumnInt64(0),
					ShowingID:    stmt.ColumnInt64(1),
					CustomerName: stmt.ColumnText(2),
					Tickets:      stmt.ColumnInt64(3),
					Total:        cinema.Amount(stmt.ColumnInt64(4)),
					SoldAt:       soldAt,
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return sales, nil
}

func (s *sqliteStore) SeedIfEmpty(ctx context.Context, catalog []cinema.ShowingFields) (int, error) {
	for index, fields := range catalog {
		if err := fields.Validate(); err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", index, err)
		}
	}

	inserted := 0
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		var count int64
		err := sqlitex.Execute(conn, "SELECT COUNT(*) FROM movies", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt64(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, fields := range catalog {
			if _, err := insertSQLiteShowing(conn, fields); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding catalog: %w", err)
	}
	if inserted > 0 {
		s.logger.Info("seeded showing catalog", "count", inserted)
	}
	return inserted, nil
}

func selectSQLiteShowing(conn *sqlite.Conn, id int64) (cinema.Showing, error) {
	var (
		showing cinema.Showing
		found   bool
	)
	err := sqlitex.Execute(conn, "SELECT "+showingColumns+" FROM movies WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			showing = scanSQLiteShowing(stmt)
			found = true
			return nil
		},
	})
	if err != nil {
		return cinema.Showing{}, err
	}
	if !found {
		return cinema.Showing{}, fault.ShowingNotFound(id)
	}
	return showing, nil
}

func insertSQLiteShowing(conn *sqlite.Conn, fields cinema.ShowingFields) (int64, error) {
	err := sqlitex.Execute(conn,
		`INSERT INTO movies (title, cinema_room, release_date, end_date, tickets_available, ticket_price_cents)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: showingArgs(fields)})
	if err != nil {
		return 0, err
	}
	return conn.LastInsertRowID(), nil
}

func scanSQLiteShowing(stmt *sqlite.Stmt) cinema.Showing {
	return cinema.Showing{
		ID: stmt.ColumnInt64(0),
		ShowingFields: cinema.ShowingFields{
			Title:            stmt.ColumnText(1),
			Room:             stmt.ColumnInt(2),
			OpeningDate:      stmt.ColumnText(3),
			ClosingDate:      stmt.ColumnText(4),
			TicketsAvailable: stmt.ColumnInt64(5),
			TicketPrice:      cinema.Amount(stmt.ColumnInt64(6)),
		},
	}
}

// showingArgs returns the column values in insert/update order. Dates
// are stored in canonical form; Validate has already checked them.
func showingArgs(fields cinema.ShowingFields) []any {
	opening, _ := cinema.ParseDate(fields.OpeningDate)
	closing, _ := cinema.ParseDate(fields.ClosingDate)
	return []any{
		fields.Title,
		int64(fields.Room),
		opening,
		closing,
		fields.TicketsAvailable,
		int64(fields.TicketPrice),
	}
}

// classifySQLiteError passes domain errors through and reports CHECK
// constraint violations as validation failures. Anything else is a
// storage failure.
func classifySQLiteError(err error, operation string) error {
	if isDomainError(err) {
		return err
	}
	if sqlite.ErrCode(err) == sqlite.ResultConstraintCheck {
		return fault.Wrap(fault.Validation, err, "rejected by a storage constraint")
	}
	return fmt.Errorf("%s: %w", operation, err)
}
