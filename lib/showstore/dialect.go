// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package showstore

import (
	"database/sql/driver"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// dialect captures what differs between the database/sql backends.
// Queries are written with '?' placeholders and rebound per dialect.
type dialect struct {
	name Backend

	// schema statements, executed in order. Each is idempotent.
	schema []string

	// numberedPlaceholders rebinds '?' to $1, $2, ...
	numberedPlaceholders bool

	// returningID means INSERT ... RETURNING id yields the new key;
	// otherwise the driver's LastInsertId is used.
	returningID bool

	// seedLock, when set, is executed at the start of the seed
	// transaction. Together with seedCount it makes concurrent seeders
	// serialize on the emptiness check.
	seedLock  string
	seedCount string

	// connector builds the driver connector from a DSN.
	connector func(dsn string) (driver.Connector, error)

	// isCheckViolation recognizes CHECK constraint failures.
	isCheckViolation func(err error) bool
}

var postgresDialect = dialect{
	name:   BackendPostgres,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id                 BIGSERIAL PRIMARY KEY,
			title              TEXT      NOT NULL,
			cinema_room        INTEGER   NOT NULL CHECK (cinema_room BETWEEN 1 AND 7),
			release_date       DATE      NOT NULL,
			end_date           DATE      NOT NULL,
			tickets_available  BIGINT    NOT NULL CHECK (tickets_available >= 0),
			ticket_price_cents BIGINT    NOT NULL CHECK (ticket_price_cents >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id                BIGSERIAL   PRIMARY KEY,
			movie_id          BIGINT      NOT NULL,
			customer_name     TEXT        NOT NULL,
			number_of_tickets BIGINT      NOT NULL CHECK (number_of_tickets > 0),
			total_cents       BIGINT      NOT NULL,
			sold_at           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sales_movie_id ON sales (movie_id)`,
	},
	numberedPlaceholders: true,
	returningID:          true,
	seedLock:             "LOCK TABLE movies IN SHARE ROW EXCLUSIVE MODE",
	seedCount:            "SELECT COUNT(*) FROM movies",
	connector: func(dsn string) (driver.Connector, error) {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			converted, err := pq.ParseURL(dsn)
			if err != nil {
				return nil, err
			}
			dsn = converted
		}
		return pq.NewConnector(dsn)
	},
	isCheckViolation: func(err error) bool {
		var pqError *pq.Error
		return errors.As(err, &pqError) && pqError.Code == "23514"
	},
}

// mysqlCheckViolation is ER_CHECK_CONSTRAINT_VIOLATED.
const mysqlCheckViolation = 3819

var mysqlDialect = dialect{
	name:   BackendMySQL,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id                 BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
			title              VARCHAR(255) NOT NULL,
			cinema_room        INT          NOT NULL CHECK (cinema_room BETWEEN 1 AND 7),
			release_date       DATE         NOT NULL,
			end_date           DATE         NOT NULL,
			tickets_available  BIGINT       NOT NULL CHECK (tickets_available >= 0),
			ticket_price_cents BIGINT       NOT NULL CHECK (ticket_price_cents >= 0)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS sales (
			id                BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
			movie_id          BIGINT       NOT NULL,
			customer_name     VARCHAR(255) NOT NULL,
			number_of_tickets BIGINT       NOT NULL CHECK (number_of_tickets > 0),
			total_cents       BIGINT       NOT NULL,
			sold_at           DATETIME(6)  NOT NULL,
			INDEX sales_movie_id (movie_id)
		) ENGINE=InnoDB`,
	},
	// A locking read on the whole index takes next-key locks that
	// block concurrent inserts until commit.
	seedCount: "SELECT COUNT(*) FROM movies FOR UPDATE",
	connector: func(dsn string) (driver.Connector, error) {
		cfg, err := mysqlConfig(dsn)
		if err != nil {
			return nil, err
		}
		return mysql.NewConnector(cfg)
	},
	isCheckViolation: func(err error) bool {
		var mysqlError *mysql.MySQLError
		return errors.As(err, &mysqlError) && mysqlError.Number == mysqlCheckViolation
	},
}

// mysqlConfig parses dsn and forces the options the store relies on.
func mysqlConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	// DATE and DATETIME columns scan into time.Time, in UTC.
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// RowsAffected must count matched rows, or an update that leaves a
	// showing unchanged reads as a missing id.
	cfg.ClientFoundRows = true
	return cfg, nil
}

// rebind rewrites '?' placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numberedPlaceholders {
		return query
	}
	var builder strings.Builder
	builder.Grow(len(query) + 8)
	position := 0
	for _, r := range query {
		if r == '?' {
			position++
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(position))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
