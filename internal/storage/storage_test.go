package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/internal/sqlstore"
	"github.com/mesh-intelligence/plotbook/internal/workspace"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOpenWorkspace(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), types.Config{Backend: types.BackendWorkspace, DataDir: dir}, quiet())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &workspace.Workspace{}, s)
	_, err = os.Stat(filepath.Join(dir, "project.json"))
	assert.NoError(t, err)
}

func TestOpenSQLiteStoresAvatarsOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir}, quiet())
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &sqlstore.Store{}, s)

	n := types.NewNovel("Tehanu")
	c := types.NewCharacter("Tenar")
	c.Avatar = []byte("png")
	n.Characters = []*types.Character{c}
	require.NoError(t, s.InsertNovel(ctx, n))

	entries, err := os.ReadDir(filepath.Join(dir, ImagesDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.Config
		want error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "mongo"}, types.ErrBackendUnknown},
		{"postgres without dsn", types.Config{Backend: types.BackendPostgres}, types.ErrDSNEmpty},
		{"s3 without bucket", types.Config{Backend: types.BackendSQLite, Images: types.ImagesConfig{Driver: types.ImagesS3}}, types.ErrImageBucketRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg, quiet())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
