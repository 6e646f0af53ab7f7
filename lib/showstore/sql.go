// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package showstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
)

// defaultSQLPoolSize caps open connections when Config.PoolSize is
// unset.
const defaultSQLPoolSize = 10

// sqlStore implements Store over database/sql for PostgreSQL and
// MySQL. Sales lock the showing row with SELECT ... FOR UPDATE.
type sqlStore struct {
	db           *sql.DB
	dialect      dialect
	deletePolicy DeletePolicy
	clock        clock.Clock
	logger       *slog.Logger
}

func openSQL(ctx context.Context, cfg Config, d dialect) (*sqlStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("showstore: %s backend requires a DSN", d.name)
	}
	connector, err := d.connector(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("showstore: parsing %s DSN: %w", d.name, err)
	}

	db := sql.OpenDB(connector)
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultSQLPoolSize
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("showstore: connecting to %s: %w", d.name, err)
	}

	store := newSQLStore(db, d, cfg)
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	cfg.Logger.Info("sql store opened", "backend", d.name, "pool_size", poolSize)
	return store, nil
}

// newSQLStore wraps an open handle. cfg must have defaults applied.
func newSQLStore(db *sql.DB, d dialect, cfg Config) *sqlStore {
	return &sqlStore{
		db:           db,
		dialect:      d,
		deletePolicy: cfg.DeletePolicy,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	for _, statement := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("showstore: creating %s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// inTransaction runs fn in a transaction that commits when fn returns
// nil and rolls back otherwise.
func (s *sqlStore) inTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.Warn("transaction rollback failed", "backend", s.dialect.name, "error", rollbackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("commit: %w", commitErr)
		}
	}()
	return fn(tx)
}

func (s *sqlStore) ListShowings(ctx context.Context) ([]cinema.Showing, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+showingColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing showings: %w", err)
	}
	defer rows.Close()

	showings := []cinema.Showing{}
	for rows.Next() {
		showing, err := scanSQLShowing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing showings: %w", err)
		}
		showings = append(showings, showing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing showings: %w", err)
	}
	return showings, nil
}

func (s *sqlStore) GetShowing(ctx context.Context, id int64) (cinema.Showing, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+showingColumns+" FROM movies WHERE id = ?"), id)
	showing, err := scanSQLShowing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cinema.Showing{}, fault.ShowingNotFound(id)
	}
	if err != nil {
		return cinema.Showing{}, fmt.Errorf("reading showing %d: %w", id, err)
	}
	return showing, nil
}

func (s *sqlStore) InsertShowing(ctx context.Context, fields cinema.ShowingFields) (int64, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertShowing(ctx, tx, fields)
		return err
	})
	if err != nil {
		return 0, s.classify(err, "inserting showing")
	}
	return id, nil
}

func (s *sqlStore) UpdateShowing(ctx context.Context, id int64, fields cinema.ShowingFields) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.dialect.rebind(
			`UPDATE movies
			    SET title = ?, cinema_room = ?, release_date = ?, end_date = ?,
			        tickets_available = ?, ticket_price_cents = ?
			  WHERE id = ?`),
			append(showingArgs(fields), id)...)
		if err != nil {
			return err
		}
		return requireAffected(result, id)
	})
	if err != nil {
		return s.classify(err, "updating showing")
	}
	return nil
}

func (s *sqlStore) DeleteShowing(ctx context.Context, id int64) error {
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		if s.deletePolicy == DeleteRestrict {
			// Lock the showing first: a sale takes the same row lock
			// before inserting, so no sale can slip in between the
			// count and the delete.
			var lockedID int64
			err := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT id FROM movies WHERE id = ? FOR UPDATE"), id).Scan(&lockedID)
			if errors.Is(err, sql.ErrNoRows) {
				return fault.ShowingNotFound(id)
			}
			if err != nil {
				return err
			}
			var salesCount int64
			err = tx.QueryRowContext(ctx, s.dialect.rebind("SELECT COUNT(*) FROM sales WHERE movie_id = ?"), id).Scan(&salesCount)
			if err != nil {
				return err
			}
			if salesCount > 0 {
				return fault.New(fault.Conflict, "showing %d has %d recorded sales and cannot be deleted", id, salesCount)
			}
		}
		result, err := tx.ExecContext(ctx, s.dialect.rebind("DELETE FROM movies WHERE id = ?"), id)
		if err != nil {
			return err
		}
		return requireAffected(result, id)
	})
	if err != nil {
		return s.classify(err, "deleting showing")
	}
	return nil
}

func (s *sqlStore) SellTickets(ctx context.Context, request cinema.SaleRequest) (cinema.Sale, error) {
	if err := request.Validate(); err != nil {
		return cinema.Sale{}, err
	}

	var sale cinema.Sale
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT "+showingColumns+" FROM movies WHERE id = ? FOR UPDATE"), request.ShowingID)
		showing, err := scanSQLShowing(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fault.ShowingNotFound(request.ShowingID)
		}
		if err != nil {
			return err
		}

		sale, err = planSale(showing, request, s.clock.Now())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, s.dialect.rebind("UPDATE movies SET tickets_available = tickets_available - ? WHERE id = ?"),
			sale.Tickets, sale.ShowingID)
		if err != nil {
			return err
		}

		sale.ID, err = s.insertReturningID(ctx, tx,
			`INSERT INTO sales (movie_id, customer_name, number_of_tickets, total_cents, sold_at)
			 VALUES (?, ?, ?, ?, ?)`,
			sale.ShowingID, sale.CustomerName, sale.Tickets, int64(sale.Total), sale.SoldAt)
		return err
	})
	if err != nil {
		return cinema.Sale{}, s.classify(err, "selling tickets")
	}
	return sale, nil
}

func (s *sqlStore) ListSales(ctx context.Context, showingID int64) ([]cinema.Sale, error) {
	query := "SELECT " + saleColumns + " FROM sales"
	var args []any
	if showingID != 0 {
		query += " WHERE movie_id = ?"
		args = append(args, showingID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	sales := []cinema.Sale{}
	for rows.Next() {
		var (
			sale       cinema.Sale
			totalCents int64
		)
		if err := rows.Scan(&sale.ID, &sale.ShowingID, &sale.CustomerName, &sale.Tickets, &totalCents, &sale.SoldAt); err != nil {
			return nil, fmt.Errorf("listing sales: %w", err)
		}
		sale.Total = cinema.Amount(totalCents)
		sale.SoldAt = sale.SoldAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return sales, nil
}

func (s *sqlStore) SeedIfEmpty(ctx context.Context, catalog []cinema.ShowingFields) (int, error) {
	for index, fields := range catalog {
		if err := fields.Validate(); err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", index, err)
		}
	}

	inserted := 0
	err := s.inTransaction(ctx, func(tx *sql.Tx) error {
		if s.dialect.seedLock != "" {
			if _, err := tx.ExecContext(ctx, s.dialect.seedLock); err != nil {
				return err
			}
		}
		var count int64
		if err := tx.QueryRowContext(ctx, s.dialect.seedCount).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, fields := range catalog {
			if _, err := s.insertShowing(ctx, tx, fields); err != nil {
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
		s.logger.Info("seeded showing catalog", "count", inserted, "backend", s.dialect.name)
	}
	return inserted, nil
}

func (s *sqlStore) insertShowing(ctx context.Context, tx *sql.Tx, fields cinema.ShowingFields) (int64, error) {
	return s.insertReturningID(ctx, tx,
		`INSERT INTO movies (title, cinema_room, release_date, end_date, tickets_available, ticket_price_cents)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		showingArgs(fields)...)
}

// insertReturningID executes an INSERT and returns the generated key.
func (s *sqlStore) insertReturningID(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	if s.dialect.returningID {
		var id int64
		err := tx.QueryRowContext(ctx, s.dialect.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	result, err := tx.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *sqlStore) classify(err error, operation string) error {
	if isDomainError(err) {
		return err
	}
	if s.dialect.isCheckViolation(err) {
		return fault.Wrap(fault.Validation, err, "rejected by a storage constraint")
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fault.ShowingNotFound(id)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLShowing(row rowScanner) (cinema.Showing, error) {
	var (
		showing          cinema.Showing
		opening, closing time.Time
		room             int64
		ticketPriceCents int64
	)
	err := row.Scan(&showing.ID, &showing.Title, &room, &opening, &closing, &showing.TicketsAvailable, &ticketPriceCents)
	if err != nil {
		return cinema.Showing{}, err
	}
	showing.Room = int(room)
	showing.OpeningDate = opening.Format(cinema.DateLayout)
	showing.ClosingDate = closing.Format(cinema.DateLayout)
	showing.TicketPrice = cinema.Amount(ticketPriceCents)
	return showing, nil
}
