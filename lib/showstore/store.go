// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package showstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
)

// Store is the persistence contract for showings and sales. Every
// method runs as one transaction. Domain failures are *fault.Error
// values (Validation, NotFound, InsufficientInventory, Conflict);
// anything else is a storage failure.
type Store interface {
	// ListShowings returns every showing ordered by identifier.
	ListShowings(ctx context.Context) ([]cinema.Showing, error)

	// GetShowing returns one showing or a NotFound error.
	GetShowing(ctx context.Context, id int64) (cinema.Showing, error)

	// InsertShowing validates fields and stores a new showing,
	// returning its fresh identifier.
	InsertShowing(ctx context.Context, fields cinema.ShowingFields) (int64, error)

	// UpdateShowing replaces every field of an existing showing.
	UpdateShowing(ctx context.Context, id int64, fields cinema.ShowingFields) error

	// DeleteShowing removes a showing according to the delete policy.
	DeleteShowing(ctx context.Context, id int64) error

	// SellTickets decrements inventory and records the sale in one
	// commit. Fails with NotFound or InsufficientInventory without
	// changing anything.
	SellTickets(ctx context.Context, request cinema.SaleRequest) (cinema.Sale, error)

	// ListSales returns recorded sales ordered by identifier. A
	// showingID of zero lists all sales.
	ListSales(ctx context.Context, showingID int64) ([]cinema.Sale, error)

	// SeedIfEmpty inserts catalog when no showings exist and reports
	// how many were inserted. The emptiness check and the inserts
	// share one write transaction.
	SeedIfEmpty(ctx context.Context, catalog []cinema.ShowingFields) (int, error)

	// Close releases the underlying database handles.
	Close() error
}

// Backend names a storage engine.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
)

// DeletePolicy decides what happens to sales when their showing is
// deleted.
type DeletePolicy string

const (
	// DeleteOrphan deletes the showing and leaves its sales in place,
	// referencing an identifier that no longer exists.
	DeleteOrphan DeletePolicy = "orphan"

	// DeleteRestrict refuses to delete a showing that has sales.
	DeleteRestrict DeletePolicy = "restrict"
)

// ParseDeletePolicy parses a policy name. The empty string selects
// DeleteOrphan.
func ParseDeletePolicy(name string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", DeleteOrphan:
		return DeleteOrphan, nil
	case DeleteRestrict:
		return DeleteRestrict, nil
	default:
		return "", fmt.Errorf("showstore: unknown delete policy %q (want %q or %q)", name, DeleteOrphan, DeleteRestrict)
	}
}

// Config selects and configures a backend.
type Config struct {
	// Backend defaults to BackendSQLite.
	Backend Backend

	// Path is the SQLite database file. Required for BackendSQLite.
	Path string

	// DSN is the data source name for postgres and mysql.
	DSN string

	// PoolSize caps open connections. Zero uses the backend default.
	PoolSize int

	DeletePolicy DeletePolicy

	// Clock stamps sales. Defaults to the wall clock.
	Clock clock.Clock

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.DeletePolicy == "" {
		c.DeletePolicy = DeleteOrphan
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Open connects to the configured backend and ensures the schema
// exists. Schema creation is idempotent.
func Open(ctx context.Context, cfg Config) (Store, error) {
	cfg.applyDefaults()
	if _, err := ParseDeletePolicy(string(cfg.DeletePolicy)); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendSQLite:
		return openSQLite(cfg)
	case BackendPostgres:
		return openSQL(ctx, cfg, postgresDialect)
	case BackendMySQL:
		return openSQL(ctx, cfg, mysqlDialect)
	default:
		return nil, fmt.Errorf("showstore: unknown backend %q", cfg.Backend)
	}
}
