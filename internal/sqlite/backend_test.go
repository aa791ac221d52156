package sqlite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/storetest"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, images blob.Store) types.Store {
		s, err := Open(context.Background(), t.TempDir(), images, quiet())
		require.NoError(t, err)
		return s
	})
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(context.Background(), dir, blob.NewMemory(), quiet())
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, FileName))
	assert.NoError(t, err)
}

func TestReopenKeepsNovels(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	images := blob.NewMemory()

	s, err := Open(ctx, dir, images, quiet())
	require.NoError(t, err)
	n := storetest.Sample()
	require.NoError(t, s.InsertNovel(ctx, n))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dir, images, quiet())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}
