// Package workspace stores novels as a directory of JSON files:
//
//	project.json              novel descriptors
//	novels/<id>.json          novel records
//	characters/<id>.json      characters, avatar ids included
//	scenes/<id>.json          scenes
//	diagrams/<id>.json        diagrams
//	world/<novel id>.json     world-building trees
//	docs/<novel id>/<id>.html document contents
//
// Avatar images go to a blob.Store, by default the images directory.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/record"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

const (
	projectFile   = "project.json"
	novelsDir     = "novels"
	charactersDir = "characters"
	scenesDir     = "scenes"
	diagramsDir   = "diagrams"
	worldDir      = "world"
	docsDir       = "docs"
	imagesDir     = "images"
)

// Workspace is a types.Store backed by a directory tree.
type Workspace struct {
	mu      sync.Mutex
	root    string
	images  blob.Store
	logger  *slog.Logger
	project record.Project
}

var _ types.Store = (*Workspace)(nil)

// Option configures a Workspace.
type Option func(*Workspace)

// WithImages stores avatars in s instead of the images directory.
func WithImages(s blob.Store) Option {
	return func(w *Workspace) { w.images = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// Open opens the workspace at root, creating its layout on first use.
func Open(root string, opts ...Option) (*Workspace, error) {
	w := &Workspace{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range []string{novelsDir, charactersDir, scenesDir, diagramsDir, worldDir, docsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating workspace: %w", err)
		}
	}
	if w.images == nil {
		fs, err := blob.NewFilesystem(filepath.Join(root, imagesDir))
		if err != nil {
			return nil, err
		}
		w.images = fs
	}

	err := readJSON(w.path(projectFile), &w.project)
	switch {
	case errors.Is(err, types.ErrNotFound):
		w.project.Novels = []types.NovelDescriptor{}
		if err := w.persistProject(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	return w, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// Close releases nothing; every write is already on disk.
func (w *Workspace) Close() error { return nil }

func (w *Workspace) path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

func jsonFile(id uuid.UUID) string { return id.String() + ".json" }

func (w *Workspace) persistProject() error {
	return writeJSON(w.path(projectFile), w.project)
}

func (w *Workspace) persistNovel(n *types.Novel) error {
	return writeJSON(w.path(novelsDir, jsonFile(n.ID)), record.FromNovel(n))
}

func (w *Workspace) persistScene(s *types.Scene) error {
	return writeJSON(w.path(scenesDir, jsonFile(s.ID)), s)
}

func (w *Workspace) descriptorIndex(id uuid.UUID) int {
	return slices.IndexFunc(w.project.Novels, func(d types.NovelDescriptor) bool { return d.ID == id })
}

// Novels lists the project's novels in insertion order.
func (w *Workspace) Novels(_ context.Context) ([]types.NovelDescriptor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.project.Novels), nil
}

// InsertNovel registers n in the project and writes it with all its members.
func (w *Workspace) InsertNovel(ctx context.Context, n *types.Novel) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i := w.descriptorIndex(n.ID); i >= 0 {
		w.project.Novels[i] = n.Descriptor()
	} else {
		w.project.Novels = append(w.project.Novels, n.Descriptor())
	}
	if err := w.persistProject(); err != nil {
		return err
	}
	for _, c := range n.Characters {
		if err := w.updateCharacter(ctx, c, true); err != nil {
			return err
		}
	}
	for _, s := range n.Scenes {
		if err := w.persistScene(s); err != nil {
			return err
		}
	}
	for _, d := range n.Diagrams {
		if err := writeJSON(w.path(diagramsDir, jsonFile(d.ID)), d); err != nil {
			return err
		}
	}
	if n.World != nil {
		if err := writeJSON(w.path(worldDir, jsonFile(n.ID)), n.World); err != nil {
			return err
		}
	}
	for _, root := range n.Documents {
		var err error
		root.Walk(func(d *types.Document) {
			if err == nil && d.Content != "" {
				err = w.writeDocument(n.ID, d)
			}
		})
		if err != nil {
			return err
		}
	}
	return w.persistNovel(n)
}

func (w *Workspace) UpdateNovel(_ context.Context, n *types.Novel) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.persistNovel(n)
}

// DeleteNovel drops n from the project and removes its record and members.
func (w *Workspace) DeleteNovel(ctx context.Context, n *types.Novel) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.descriptorIndex(n.ID)
	if i < 0 {
		return fmt.Errorf("novel %s: %w", n.ID, types.ErrNotFound)
	}
	w.project.Novels = slices.Delete(w.project.Novels, i, i+1)
	if err := w.persistProject(); err != nil {
		return err
	}
	if err := remove(w.path(novelsDir, jsonFile(n.ID))); err != nil {
		return err
	}

	var errs []error
	for _, c := range n.Characters {
		errs = append(errs, w.deleteCharacter(ctx, c.ID))
	}
	for _, s := range n.Scenes {
		errs = append(errs, remove(w.path(scenesDir, jsonFile(s.ID))))
	}
	for _, d := range n.Diagrams {
		errs = append(errs, remove(w.path(diagramsDir, jsonFile(d.ID))))
	}
	errs = append(errs,
		remove(w.path(worldDir, jsonFile(n.ID))),
		os.RemoveAll(w.path(docsDir, n.ID.String())))
	return errors.Join(errs...)
}

// UpdateProjectNovel refreshes the title and subtitle listed in the project.
func (w *Workspace) UpdateProjectNovel(_ context.Context, d types.NovelDescriptor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.descriptorIndex(d.ID)
	if i < 0 {
		return fmt.Errorf("novel %s: %w", d.ID, types.ErrNotFound)
	}
	if w.project.Novels[i] == d {
		return nil
	}
	w.project.Novels[i] = d
	return w.persistProject()
}

func (w *Workspace) InsertCharacter(ctx context.Context, n *types.Novel, c *types.Character) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.updateCharacter(ctx, c, true); err != nil {
		return err
	}
	return w.persistNovel(n)
}

func (w *Workspace) UpdateCharacter(ctx context.Context, c *types.Character, avatarChanged bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updateCharacter(ctx, c, avatarChanged)
}

// updateCharacter writes the character record. The stored avatar is kept
// unless avatarChanged, in which case the old image is dropped and the
// current bytes, if any, are stored under a new id.
func (w *Workspace) updateCharacter(ctx context.Context, c *types.Character, avatarChanged bool) error {
	path := w.path(charactersDir, jsonFile(c.ID))
	var prev record.Character
	if err := readJSON(path, &prev); err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	avatarID := prev.AvatarID

	if avatarChanged {
		if avatarID != uuid.Nil {
			if err := w.images.Delete(ctx, blob.AvatarKey(avatarID)); err != nil {
				return fmt.Errorf("deleting avatar: %w", err)
			}
			avatarID = uuid.Nil
		}
		if len(c.Avatar) > 0 {
			avatarID = uuid.New()
			if err := w.images.Put(ctx, blob.AvatarKey(avatarID), c.Avatar, "image/png"); err != nil {
				return fmt.Errorf("storing avatar: %w", err)
			}
		}
	}
	return writeJSON(path, record.Character{Character: *c, AvatarID: avatarID})
}

func (w *Workspace) DeleteCharacter(ctx context.Context, n *types.Novel, c *types.Character) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.persistNovel(n); err != nil {
		return err
	}
	return w.deleteCharacter(ctx, c.ID)
}

func (w *Workspace) deleteCharacter(ctx context.Context, id uuid.UUID) error {
	path := w.path(charactersDir, jsonFile(id))
	var rec record.Character
	switch err := readJSON(path, &rec); {
	case errors.Is(err, types.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	if rec.AvatarID != uuid.Nil {
		if err := w.images.Delete(ctx, blob.AvatarKey(rec.AvatarID)); err != nil {
			return fmt.Errorf("deleting avatar: %w", err)
		}
	}
	return remove(path)
}

func (w *Workspace) InsertScene(_ context.Context, n *types.Novel, s *types.Scene) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.persistScene(s); err != nil {
		return err
	}
	return w.persistNovel(n)
}

func (w *Workspace) UpdateScene(_ context.Context, s *types.Scene) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.persistScene(s)
}

func (w *Workspace) DeleteScene(_ context.Context, n *types.Novel, s *types.Scene) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.persistNovel(n); err != nil {
		return err
	}
	return remove(w.path(scenesDir, jsonFile(s.ID)))
}

func (w *Workspace) docPath(novelID, docID uuid.UUID) string {
	return w.path(docsDir, novelID.String(), docID.String()+".html")
}

func (w *Workspace) writeDocument(novelID uuid.UUID, d *types.Document) error {
	return writeFile(w.docPath(novelID, d.ID), []byte(d.Content))
}

// UpdateDocument writes the document's content. The tree itself is part of
// the novel record.
func (w *Workspace) UpdateDocument(_ context.Context, n *types.Novel, d *types.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeDocument(n.ID, d)
}

func (w *Workspace) DeleteDocument(_ context.Context, n *types.Novel, d *types.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return remove(w.docPath(n.ID, d.ID))
}

func (w *Workspace) UpdateDiagram(_ context.Context, _ *types.Novel, d *types.Diagram) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return writeJSON(w.path(diagramsDir, jsonFile(d.ID)), d)
}

func (w *Workspace) UpdateWorld(_ context.Context, n *types.Novel) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n.World == nil {
		return remove(w.path(worldDir, jsonFile(n.ID)))
	}
	return writeJSON(w.path(worldDir, jsonFile(n.ID)), n.World)
}

// FetchNovel loads the full aggregate. Members listed by the novel record but
// missing on disk are skipped with a warning.
func (w *Workspace) FetchNovel(ctx context.Context, id uuid.UUID) (*types.Novel, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.descriptorIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("novel %s: %w", id, types.ErrNotFound)
	}
	var rec record.Novel
	if err := readJSON(w.path(novelsDir, jsonFile(id)), &rec); err != nil {
		return nil, err
	}
	// The project file is authoritative for title and subtitle.
	desc := w.project.Novels[i]
	rec.Title, rec.Subtitle = desc.Title, desc.Subtitle

	parts := record.Parts{
		Characters: make(map[uuid.UUID]*types.Character),
		Scenes:     make(map[uuid.UUID]*types.Scene),
		Contents:   make(map[uuid.UUID]string),
		Diagrams:   make(map[uuid.UUID]*types.Diagram),
	}
	for _, cid := range rec.Characters {
		c, err := w.loadCharacter(ctx, cid)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return nil, err
			}
			w.logger.Warn("character record missing", "novel", id, "character", cid)
			continue
		}
		parts.Characters[cid] = c
	}
	for _, sid := range rec.Scenes {
		var s types.Scene
		if err := readJSON(w.path(scenesDir, jsonFile(sid)), &s); err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return nil, err
			}
			w.logger.Warn("scene record missing", "novel", id, "scene", sid)
			continue
		}
		parts.Scenes[sid] = &s
	}
	for _, did := range rec.Diagrams {
		var d types.Diagram
		if err := readJSON(w.path(diagramsDir, jsonFile(did)), &d); err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return nil, err
			}
			continue
		}
		parts.Diagrams[did] = &d
	}
	for _, did := range record.DocumentIDs(rec.Documents) {
		data, err := os.ReadFile(w.docPath(id, did))
		if err == nil {
			parts.Contents[did] = string(data)
		}
	}
	var world types.WorldBuilding
	switch err := readJSON(w.path(worldDir, jsonFile(id)), &world); {
	case err == nil:
		parts.World = &world
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}

	return record.Assemble(rec, parts), nil
}

func (w *Workspace) loadCharacter(ctx context.Context, id uuid.UUID) (*types.Character, error) {
	var rec record.Character
	if err := readJSON(w.path(charactersDir, jsonFile(id)), &rec); err != nil {
		return nil, err
	}
	c := rec.Character
	if rec.AvatarID != uuid.Nil {
		data, err := w.images.Get(ctx, blob.AvatarKey(rec.AvatarID))
		switch {
		case err == nil:
			c.Avatar = data
		case errors.Is(err, types.ErrNotFound):
			w.logger.Warn("avatar image missing", "character", id, "avatar", rec.AvatarID)
		default:
			return nil, fmt.Errorf("loading avatar: %w", err)
		}
	}
	return &c, nil
}
