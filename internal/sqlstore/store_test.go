package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func openTest(t *testing.T, logger *slog.Logger) (*Store, *blob.Memory) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "plotbook.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	images := blob.NewMemory()
	s := New(db, SQLite, images, logger)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s, images
}

func TestMigrateIsRepeatable(t *testing.T) {
	s, _ := openTest(t, nil)
	require.NoError(t, s.Migrate(context.Background()))

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&count))
	assert.Equal(t, 6, count)
}

func TestUpdateNovelKeepsDescriptor(t *testing.T) {
	ctx := context.Background()
	s, _ := openTest(t, nil)

	n := types.NewNovel("Lathe of Heaven")
	require.NoError(t, s.InsertNovel(ctx, n))

	n.Title = "changed in memory only"
	n.Conflicts = []*types.Conflict{{ID: uuid.New(), Text: "dreams", Type: types.ConflictSelf}}
	require.NoError(t, s.UpdateNovel(ctx, n))

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lathe of Heaven", got.Title)
	assert.Len(t, got.Conflicts, 1)
}

func TestUpdateNovelAppendsUnknownNovel(t *testing.T) {
	ctx := context.Background()
	s, _ := openTest(t, nil)

	first, second := types.NewNovel("first"), types.NewNovel("second")
	require.NoError(t, s.InsertNovel(ctx, first))
	require.NoError(t, s.UpdateNovel(ctx, second))

	list, err := s.Novels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.NovelDescriptor{first.Descriptor(), second.Descriptor()}, list)
}

func TestFetchSkipsMissingMembers(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	s, images := openTest(t, slog.New(slog.NewTextHandler(&logs, nil)))

	n := types.NewNovel("gaps")
	c := types.NewCharacter("ghost")
	c.Avatar = []byte("png")
	n.Characters = []*types.Character{c}
	n.Scenes = []*types.Scene{types.NewScene("lost")}
	require.NoError(t, s.InsertNovel(ctx, n))

	_, err := s.DB().Exec("DELETE FROM scenes")
	require.NoError(t, err)
	for _, key := range images.Keys() {
		require.NoError(t, images.Delete(ctx, key))
	}

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Scenes)
	require.Len(t, got.Characters, 1)
	assert.Nil(t, got.Characters[0].Avatar)
	assert.Contains(t, logs.String(), "scene record missing")
	assert.Contains(t, logs.String(), "avatar image missing")
}

func TestUpdateWorldNilRemovesRow(t *testing.T) {
	ctx := context.Background()
	s, _ := openTest(t, nil)

	n := types.NewNovel("n")
	n.World = &types.WorldBuilding{Entities: []*types.WorldEntity{{ID: uuid.New(), Name: "Earthsea"}}}
	require.NoError(t, s.InsertNovel(ctx, n))

	n.World = nil
	require.NoError(t, s.UpdateWorld(ctx, n))
	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.World)
}
