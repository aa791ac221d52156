package blob

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFilesystem(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	s3, _ := newFakeS3Store(t)
	return map[string]Store{
		"fs":     fs,
		"memory": NewMemory(),
		"s3":     s3,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := AvatarKey(uuid.New())

			require.NoError(t, store.Put(ctx, key, []byte("first"), "image/png"))
			got, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), got)

			require.NoError(t, store.Put(ctx, key, []byte("second"), "image/png"))
			got, err = store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)

			require.NoError(t, store.Delete(ctx, key))
			_, err = store.Get(ctx, key)
			assert.ErrorIs(t, err, types.ErrNotFound)

			assert.NoError(t, store.Delete(ctx, key), "deleting a missing blob")
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "  ", "/etc/passwd", "../escape.png", "a/../../b"} {
				assert.ErrorIs(t, store.Put(ctx, key, []byte("x"), ""), ErrInvalidKey, key)
				_, err := store.Get(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, key)
				assert.ErrorIs(t, store.Delete(ctx, key), ErrInvalidKey, key)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "images")

	s, err := Open(ctx, types.ImagesConfig{}, root)
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	assert.DirExists(t, root)

	s, err = Open(ctx, types.ImagesConfig{Driver: types.ImagesMemory}, root)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	_, err = Open(ctx, types.ImagesConfig{Driver: types.ImagesS3}, root)
	assert.ErrorIs(t, err, types.ErrImageBucketRequired)

	_, err = Open(ctx, types.ImagesConfig{Driver: "floppy"}, root)
	assert.ErrorIs(t, err, types.ErrImageDriverUnknown)
}

func TestS3StoresUnderBucketPath(t *testing.T) {
	store, fake := newFakeS3Store(t)
	require.NoError(t, store.Put(context.Background(), "abc.png", []byte("png"), "image/png"))
	assert.Equal(t, []byte("png"), fake.objects["abc.png"])
}

func TestMemoryKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, "b.png", nil, ""))
	require.NoError(t, m.Put(ctx, "a.png", nil, ""))
	assert.Equal(t, []string{"a.png", "b.png"}, m.Keys())
}
