// Package postgres opens the Postgres storage backend through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/sqlstore"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

const driverName = "pgx"

var sqlOpen = sql.Open

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string, images blob.Store, logger *slog.Logger) (*sqlstore.Store, error) {
	if dsn == "" {
		return nil, types.ErrDSNEmpty
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := sqlstore.New(db, sqlstore.Postgres, images, logger)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
