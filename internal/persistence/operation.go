package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Kind is the effect an operation has on its entity.
type Kind int

const (
	Insert Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Target is the aggregate member an operation writes.
type Target int

const (
	TargetNovel Target = iota
	TargetProjectNovel
	TargetCharacter
	TargetScene
	TargetDocument
	TargetDiagram
	TargetWorld
)

func (t Target) String() string {
	switch t {
	case TargetNovel:
		return "novel"
	case TargetProjectNovel:
		return "project_novel"
	case TargetCharacter:
		return "character"
	case TargetScene:
		return "scene"
	case TargetDocument:
		return "document"
	case TargetDiagram:
		return "diagram"
	case TargetWorld:
		return "world"
	default:
		return "unknown"
	}
}

// Operation is one pending persistence effect. The set of implementations is
// closed: operations are only built by Manager's mutation methods, each of
// which captures a deep snapshot of the entities involved. A flush therefore
// never reads memory the caller may still be mutating.
type Operation interface {
	Kind() Kind
	Target() Target
	// EntityID identifies the written entity (the novel for novel and world
	// operations).
	EntityID() uuid.UUID

	persist(ctx context.Context, b types.Backend) error
	// writes lists the storage keys the backend call overwrites.
	writes() []string
}

// updateOperation is an Update that may be coalesced with a later Update of
// the same key.
type updateOperation interface {
	Operation
	key() string
	// absorb returns the operation that replaces prev, which is an older
	// update with the same key.
	absorb(prev Operation) Operation
}

// Label returns "<kind>_<target>", e.g. "update_scene".
func Label(op Operation) string {
	return op.Kind().String() + "_" + op.Target().String()
}

func novelKey(id uuid.UUID) string      { return "novel:" + id.String() }
func descriptorKey(id uuid.UUID) string { return "descriptor:" + id.String() }
func characterKey(id uuid.UUID) string  { return "character:" + id.String() }
func sceneKey(id uuid.UUID) string      { return "scene:" + id.String() }
func documentKey(id uuid.UUID) string   { return "document:" + id.String() }
func diagramKey(id uuid.UUID) string    { return "diagram:" + id.String() }
func worldKey(id uuid.UUID) string      { return "world:" + id.String() }

// header returns a novel carrying only its descriptor. Operations on
// documents and diagrams need the novel solely to address it.
func header(n *types.Novel) *types.Novel {
	return &types.Novel{NovelDescriptor: n.NovelDescriptor}
}

// Novel operations.

type insertNovelOp struct{ novel *types.Novel }

func (o insertNovelOp) Kind() Kind          { return Insert }
func (o insertNovelOp) Target() Target      { return TargetNovel }
func (o insertNovelOp) EntityID() uuid.UUID { return o.novel.ID }
func (o insertNovelOp) writes() []string {
	return []string{novelKey(o.novel.ID), descriptorKey(o.novel.ID)}
}
func (o insertNovelOp) persist(ctx context.Context, b types.Backend) error {
	return b.InsertNovel(ctx, o.novel)
}

type updateNovelOp struct{ novel *types.Novel }

func (o updateNovelOp) Kind() Kind                 { return Update }
func (o updateNovelOp) Target() Target             { return TargetNovel }
func (o updateNovelOp) EntityID() uuid.UUID        { return o.novel.ID }
func (o updateNovelOp) key() string                { return novelKey(o.novel.ID) }
func (o updateNovelOp) writes() []string           { return []string{o.key()} }
func (o updateNovelOp) absorb(Operation) Operation { return o }
func (o updateNovelOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateNovel(ctx, o.novel)
}

type deleteNovelOp struct{ novel *types.Novel }

func (o deleteNovelOp) Kind() Kind          { return Delete }
func (o deleteNovelOp) Target() Target      { return TargetNovel }
func (o deleteNovelOp) EntityID() uuid.UUID { return o.novel.ID }
func (o deleteNovelOp) writes() []string {
	return []string{novelKey(o.novel.ID), descriptorKey(o.novel.ID), worldKey(o.novel.ID)}
}
func (o deleteNovelOp) persist(ctx context.Context, b types.Backend) error {
	return b.DeleteNovel(ctx, o.novel)
}

type updateProjectNovelOp struct{ descriptor types.NovelDescriptor }

func (o updateProjectNovelOp) Kind() Kind                 { return Update }
func (o updateProjectNovelOp) Target() Target             { return TargetProjectNovel }
func (o updateProjectNovelOp) EntityID() uuid.UUID        { return o.descriptor.ID }
func (o updateProjectNovelOp) key() string                { return descriptorKey(o.descriptor.ID) }
func (o updateProjectNovelOp) writes() []string           { return []string{o.key()} }
func (o updateProjectNovelOp) absorb(Operation) Operation { return o }
func (o updateProjectNovelOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateProjectNovel(ctx, o.descriptor)
}

// Character operations.

type insertCharacterOp struct {
	novel     *types.Novel
	character *types.Character
}

func (o insertCharacterOp) Kind() Kind          { return Insert }
func (o insertCharacterOp) Target() Target      { return TargetCharacter }
func (o insertCharacterOp) EntityID() uuid.UUID { return o.character.ID }
func (o insertCharacterOp) writes() []string {
	return []string{characterKey(o.character.ID), novelKey(o.novel.ID)}
}
func (o insertCharacterOp) persist(ctx context.Context, b types.Backend) error {
	return b.InsertCharacter(ctx, o.novel, o.character)
}

type updateCharacterOp struct {
	character     *types.Character
	avatarChanged bool
}

func (o updateCharacterOp) Kind() Kind          { return Update }
func (o updateCharacterOp) Target() Target      { return TargetCharacter }
func (o updateCharacterOp) EntityID() uuid.UUID { return o.character.ID }
func (o updateCharacterOp) key() string         { return characterKey(o.character.ID) }
func (o updateCharacterOp) writes() []string    { return []string{o.key()} }

// absorb keeps an avatar change requested by an older update, otherwise the
// newer snapshot would silently skip rewriting the image.
func (o updateCharacterOp) absorb(prev Operation) Operation {
	if p, ok := prev.(updateCharacterOp); ok && p.avatarChanged {
		o.avatarChanged = true
	}
	return o
}
func (o updateCharacterOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateCharacter(ctx, o.character, o.avatarChanged)
}

type deleteCharacterOp struct {
	novel     *types.Novel
	character *types.Character
}

func (o deleteCharacterOp) Kind() Kind          { return Delete }
func (o deleteCharacterOp) Target() Target      { return TargetCharacter }
func (o deleteCharacterOp) EntityID() uuid.UUID { return o.character.ID }
func (o deleteCharacterOp) writes() []string {
	return []string{characterKey(o.character.ID), novelKey(o.novel.ID)}
}
func (o deleteCharacterOp) persist(ctx context.Context, b types.Backend) error {
	return b.DeleteCharacter(ctx, o.novel, o.character)
}

// Scene operations.

type insertSceneOp struct {
	novel *types.Novel
	scene *types.Scene
}

func (o insertSceneOp) Kind() Kind          { return Insert }
func (o insertSceneOp) Target() Target      { return TargetScene }
func (o insertSceneOp) EntityID() uuid.UUID { return o.scene.ID }
func (o insertSceneOp) writes() []string {
	return []string{sceneKey(o.scene.ID), novelKey(o.novel.ID)}
}
func (o insertSceneOp) persist(ctx context.Context, b types.Backend) error {
	return b.InsertScene(ctx, o.novel, o.scene)
}

type updateSceneOp struct{ scene *types.Scene }

func (o updateSceneOp) Kind() Kind                 { return Update }
func (o updateSceneOp) Target() Target             { return TargetScene }
func (o updateSceneOp) EntityID() uuid.UUID        { return o.scene.ID }
func (o updateSceneOp) key() string                { return sceneKey(o.scene.ID) }
func (o updateSceneOp) writes() []string           { return []string{o.key()} }
func (o updateSceneOp) absorb(Operation) Operation { return o }
func (o updateSceneOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateScene(ctx, o.scene)
}

type deleteSceneOp struct {
	novel *types.Novel
	scene *types.Scene
}

func (o deleteSceneOp) Kind() Kind          { return Delete }
func (o deleteSceneOp) Target() Target      { return TargetScene }
func (o deleteSceneOp) EntityID() uuid.UUID { return o.scene.ID }
func (o deleteSceneOp) writes() []string {
	return []string{sceneKey(o.scene.ID), novelKey(o.novel.ID)}
}
func (o deleteSceneOp) persist(ctx context.Context, b types.Backend) error {
	return b.DeleteScene(ctx, o.novel, o.scene)
}

// Document, diagram and world operations.

type updateDocumentOp struct {
	novel *types.Novel
	doc   *types.Document
}

func (o updateDocumentOp) Kind() Kind                 { return Update }
func (o updateDocumentOp) Target() Target             { return TargetDocument }
func (o updateDocumentOp) EntityID() uuid.UUID        { return o.doc.ID }
func (o updateDocumentOp) key() string                { return documentKey(o.doc.ID) }
func (o updateDocumentOp) writes() []string           { return []string{o.key()} }
func (o updateDocumentOp) absorb(Operation) Operation { return o }
func (o updateDocumentOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateDocument(ctx, o.novel, o.doc)
}

type deleteDocumentOp struct {
	novel *types.Novel
	doc   *types.Document
}

func (o deleteDocumentOp) Kind() Kind          { return Delete }
func (o deleteDocumentOp) Target() Target      { return TargetDocument }
func (o deleteDocumentOp) EntityID() uuid.UUID { return o.doc.ID }
func (o deleteDocumentOp) writes() []string    { return []string{documentKey(o.doc.ID)} }
func (o deleteDocumentOp) persist(ctx context.Context, b types.Backend) error {
	return b.DeleteDocument(ctx, o.novel, o.doc)
}

type updateDiagramOp struct {
	novel   *types.Novel
	diagram *types.Diagram
}

func (o updateDiagramOp) Kind() Kind                 { return Update }
func (o updateDiagramOp) Target() Target             { return TargetDiagram }
func (o updateDiagramOp) EntityID() uuid.UUID        { return o.diagram.ID }
func (o updateDiagramOp) key() string                { return diagramKey(o.diagram.ID) }
func (o updateDiagramOp) writes() []string           { return []string{o.key()} }
func (o updateDiagramOp) absorb(Operation) Operation { return o }
func (o updateDiagramOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateDiagram(ctx, o.novel, o.diagram)
}

// updateWorldOp carries the novel header plus a copy of its world.
type updateWorldOp struct{ novel *types.Novel }

func (o updateWorldOp) Kind() Kind                 { return Update }
func (o updateWorldOp) Target() Target             { return TargetWorld }
func (o updateWorldOp) EntityID() uuid.UUID        { return o.novel.ID }
func (o updateWorldOp) key() string                { return worldKey(o.novel.ID) }
func (o updateWorldOp) writes() []string           { return []string{o.key()} }
func (o updateWorldOp) absorb(Operation) Operation { return o }
func (o updateWorldOp) persist(ctx context.Context, b types.Backend) error {
	return b.UpdateWorld(ctx, o.novel)
}
