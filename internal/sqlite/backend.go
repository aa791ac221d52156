// Package sqlite opens the SQLite storage backend: a single database file in
// the data directory, driven by the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/sqlstore"
)

// FileName is the database file created inside the data directory.
const FileName = "plotbook.db"

// Open opens, creating if needed, the database in dataDir and applies the
// schema. Avatars go to images.
func Open(ctx context.Context, dataDir string, images blob.Store, logger *slog.Logger) (*sqlstore.Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dsn := "file:" + filepath.Join(dataDir, FileName) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	store := sqlstore.New(db, sqlstore.SQLite, images, logger)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
