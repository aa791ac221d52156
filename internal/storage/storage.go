// Package storage opens the configured types.Store together with the blob
// store that holds its avatar images.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/postgres"
	"github.com/mesh-intelligence/plotbook/internal/sqlite"
	"github.com/mesh-intelligence/plotbook/internal/workspace"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// ImagesDir is where the filesystem image driver keeps avatars, relative to
// the data directory.
const ImagesDir = "images"

// Open validates cfg and opens the selected backend.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	images, err := blob.Open(ctx, cfg.Images, filepath.Join(cfg.DataDir, ImagesDir))
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	logger.Debug("opening store", "backend", cfg.Backend, "data_dir", cfg.DataDir, "images", images.Driver())

	var (
		store   types.Store
		openErr error
	)
	switch cfg.Backend {
	case types.BackendWorkspace:
		store, openErr = asStore(workspace.Open(cfg.DataDir, workspace.WithImages(images), workspace.WithLogger(logger)))
	case types.BackendSQLite:
		store, openErr = asStore(sqlite.Open(ctx, cfg.DataDir, images, logger))
	case types.BackendPostgres:
		store, openErr = asStore(postgres.Open(ctx, cfg.PostgresDSN, images, logger))
	default:
		openErr = fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
	if openErr != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, openErr)
	}
	return store, nil
}

// asStore keeps a failed open from leaking a typed nil into the interface.
func asStore[S types.Store](s S, err error) (types.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
