// Package blob stores binary images, such as character avatars, outside the
// JSON records that reference them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Driver identifies a Store implementation.
type Driver string

const (
	DriverFilesystem Driver = types.ImagesFilesystem
	DriverS3         Driver = types.ImagesS3
	DriverMemory     Driver = types.ImagesMemory
)

// ErrInvalidKey is returned for empty keys and keys that would escape the
// store root.
var ErrInvalidKey = errors.New("invalid blob key")

// Store keeps blobs by key. Put overwrites; Delete of a missing key is not
// an error; Get of a missing key returns an error wrapping types.ErrNotFound.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// Open returns the Store selected by cfg. Filesystem stores live under
// root.
func Open(ctx context.Context, cfg types.ImagesConfig, root string) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewFilesystem(root)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrImageDriverUnknown, cfg.Driver)
	}
}

// AvatarKey is the key of a character avatar image.
func AvatarKey(avatarID uuid.UUID) string {
	return avatarID.String() + ".png"
}

// cleanKey rejects keys that are empty, absolute or climb out of the root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}
