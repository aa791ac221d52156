package types

import (
	"context"

	"github.com/google/uuid"
)

// Backend durably stores one aggregate member at a time. Every call is a
// synchronous whole-entity overwrite, so calling it redundantly is safe.
type Backend interface {
	InsertNovel(ctx context.Context, novel *Novel) error
	UpdateNovel(ctx context.Context, novel *Novel) error
	DeleteNovel(ctx context.Context, novel *Novel) error
	// UpdateProjectNovel refreshes only the project-level descriptor.
	UpdateProjectNovel(ctx context.Context, novel NovelDescriptor) error

	InsertCharacter(ctx context.Context, novel *Novel, character *Character) error
	// UpdateCharacter rewrites the character; the stored avatar is replaced
	// only when avatarChanged is set.
	UpdateCharacter(ctx context.Context, character *Character, avatarChanged bool) error
	DeleteCharacter(ctx context.Context, novel *Novel, character *Character) error

	InsertScene(ctx context.Context, novel *Novel, scene *Scene) error
	UpdateScene(ctx context.Context, scene *Scene) error
	DeleteScene(ctx context.Context, novel *Novel, scene *Scene) error

	UpdateDocument(ctx context.Context, novel *Novel, doc *Document) error
	DeleteDocument(ctx context.Context, novel *Novel, doc *Document) error

	UpdateDiagram(ctx context.Context, novel *Novel, diagram *Diagram) error
	UpdateWorld(ctx context.Context, novel *Novel) error
}

// Loader reads novels back from storage.
type Loader interface {
	// Novels lists every novel in the project.
	Novels(ctx context.Context) ([]NovelDescriptor, error)
	// FetchNovel loads the full aggregate. Returns ErrNotFound if absent.
	FetchNovel(ctx context.Context, id uuid.UUID) (*Novel, error)
}

// Store is a complete storage backend.
type Store interface {
	Backend
	Loader
	Close() error
}
