// Package sqlstore implements types.Store on top of database/sql. The SQLite
// and Postgres backends share this code and differ only in the driver they
// open and the Dialect they pass in.
//
// Every table keeps one JSON record per row, the same records the workspace
// backend writes to disk. Avatar images live in a blob.Store.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/record"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

var (
	upsertNovelQuery     = upsert("novels", "novel_id", []string{"novel_id", "ordinal", "title", "subtitle", "record"}, []string{"title", "subtitle", "record"})
	upsertRecordQuery    = upsert("novels", "novel_id", []string{"novel_id", "ordinal", "title", "subtitle", "record"}, []string{"record"})
	upsertCharacterQuery = upsert("characters", "character_id", []string{"character_id", "avatar_id", "record"}, []string{"avatar_id", "record"})
	upsertSceneQuery     = upsert("scenes", "scene_id", []string{"scene_id", "record"}, []string{"record"})
	upsertDocumentQuery  = upsert("documents", "document_id", []string{"document_id", "novel_id", "content"}, []string{"novel_id", "content"})
	upsertDiagramQuery   = upsert("diagrams", "diagram_id", []string{"diagram_id", "record"}, []string{"record"})
	upsertWorldQuery     = upsert("worlds", "novel_id", []string{"novel_id", "record"}, []string{"record"})
)

// Store is a types.Store over a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	images  blob.Store
	logger  *slog.Logger
}

var _ types.Store = (*Store)(nil)

// New wraps db. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect, images blob.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: dialect, images: images, logger: logger}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range statements(schemaSQL) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying %s schema: %w", s.dialect, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	return string(b), nil
}

func (s *Store) nextOrdinal(ctx context.Context, q execer) (int64, error) {
	var last sql.NullInt64
	if err := s.queryRow(ctx, q, "SELECT MAX(ordinal) FROM novels").Scan(&last); err != nil {
		return 0, fmt.Errorf("reading novel order: %w", err)
	}
	return last.Int64 + 1, nil
}

// writeNovel stores the novel record. A novel that has no row yet is
// appended to the project; an existing row keeps its position and, unless
// descriptor is set, its title and subtitle.
func (s *Store) writeNovel(ctx context.Context, q execer, n *types.Novel, descriptor bool) error {
	rec, err := marshal(record.FromNovel(n))
	if err != nil {
		return err
	}
	ordinal, err := s.nextOrdinal(ctx, q)
	if err != nil {
		return err
	}
	query := upsertRecordQuery
	if descriptor {
		query = upsertNovelQuery
	}
	if _, err := s.exec(ctx, q, query, n.ID.String(), ordinal, n.Title, n.Subtitle, rec); err != nil {
		return fmt.Errorf("writing novel %s: %w", n.ID, err)
	}
	return nil
}

func (s *Store) writeScene(ctx context.Context, q execer, sc *types.Scene) error {
	rec, err := marshal(sc)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, q, upsertSceneQuery, sc.ID.String(), rec); err != nil {
		return fmt.Errorf("writing scene %s: %w", sc.ID, err)
	}
	return nil
}

func (s *Store) writeDiagram(ctx context.Context, q execer, d *types.Diagram) error {
	rec, err := marshal(d)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, q, upsertDiagramQuery, d.ID.String(), rec); err != nil {
		return fmt.Errorf("writing diagram %s: %w", d.ID, err)
	}
	return nil
}

func (s *Store) writeWorld(ctx context.Context, q execer, n *types.Novel) error {
	if n.World == nil {
		_, err := s.exec(ctx, q, "DELETE FROM worlds WHERE novel_id = ?", n.ID.String())
		return err
	}
	rec, err := marshal(n.World)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, q, upsertWorldQuery, n.ID.String(), rec); err != nil {
		return fmt.Errorf("writing world of %s: %w", n.ID, err)
	}
	return nil
}

func (s *Store) writeDocument(ctx context.Context, q execer, novelID uuid.UUID, d *types.Document) error {
	if _, err := s.exec(ctx, q, upsertDocumentQuery, d.ID.String(), novelID.String(), d.Content); err != nil {
		return fmt.Errorf("writing document %s: %w", d.ID, err)
	}
	return nil
}

// Novels lists the project's novels in insertion order.
func (s *Store) Novels(ctx context.Context) ([]types.NovelDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT novel_id, title, subtitle FROM novels ORDER BY ordinal")
	if err != nil {
		return nil, fmt.Errorf("listing novels: %w", err)
	}
	defer rows.Close()

	out := []types.NovelDescriptor{}
	for rows.Next() {
		var id, title, subtitle string
		if err := rows.Scan(&id, &title, &subtitle); err != nil {
			return nil, fmt.Errorf("scanning novel: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("novel id %q: %w", id, types.ErrInvalidID)
		}
		out = append(out, types.NovelDescriptor{ID: parsed, Title: title, Subtitle: subtitle})
	}
	return out, rows.Err()
}

// InsertNovel writes n together with every member it already holds.
func (s *Store) InsertNovel(ctx context.Context, n *types.Novel) error {
	for _, c := range n.Characters {
		if err := s.updateCharacter(ctx, c, true); err != nil {
			return err
		}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, sc := range n.Scenes {
			if err := s.writeScene(ctx, tx, sc); err != nil {
				return err
			}
		}
		for _, d := range n.Diagrams {
			if err := s.writeDiagram(ctx, tx, d); err != nil {
				return err
			}
		}
		if n.World != nil {
			if err := s.writeWorld(ctx, tx, n); err != nil {
				return err
			}
		}
		for _, root := range n.Documents {
			var err error
			root.Walk(func(d *types.Document) {
				if err == nil && d.Content != "" {
					err = s.writeDocument(ctx, tx, n.ID, d)
				}
			})
			if err != nil {
				return err
			}
		}
		return s.writeNovel(ctx, tx, n, true)
	})
}

func (s *Store) UpdateNovel(ctx context.Context, n *types.Novel) error {
	return s.writeNovel(ctx, s.db, n, false)
}

// DeleteNovel removes the novel row and every member listed by n.
func (s *Store) DeleteNovel(ctx context.Context, n *types.Novel) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, "DELETE FROM novels WHERE novel_id = ?", n.ID.String())
		if err != nil {
			return fmt.Errorf("deleting novel %s: %w", n.ID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("novel %s: %w", n.ID, types.ErrNotFound)
		}
		for _, sc := range n.Scenes {
			if _, err := s.exec(ctx, tx, "DELETE FROM scenes WHERE scene_id = ?", sc.ID.String()); err != nil {
				return err
			}
		}
		for _, d := range n.Diagrams {
			if _, err := s.exec(ctx, tx, "DELETE FROM diagrams WHERE diagram_id = ?", d.ID.String()); err != nil {
				return err
			}
		}
		if _, err := s.exec(ctx, tx, "DELETE FROM worlds WHERE novel_id = ?", n.ID.String()); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, "DELETE FROM documents WHERE novel_id = ?", n.ID.String())
		return err
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range n.Characters {
		errs = append(errs, s.deleteCharacter(ctx, c.ID))
	}
	return errors.Join(errs...)
}

// UpdateProjectNovel refreshes the stored title and subtitle.
func (s *Store) UpdateProjectNovel(ctx context.Context, d types.NovelDescriptor) error {
	res, err := s.exec(ctx, s.db, "UPDATE novels SET title = ?, subtitle = ? WHERE novel_id = ?",
		d.Title, d.Subtitle, d.ID.String())
	if err != nil {
		return fmt.Errorf("updating novel %s: %w", d.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("novel %s: %w", d.ID, types.ErrNotFound)
	}
	return nil
}

func (s *Store) InsertCharacter(ctx context.Context, n *types.Novel, c *types.Character) error {
	if err := s.updateCharacter(ctx, c, true); err != nil {
		return err
	}
	return s.writeNovel(ctx, s.db, n, false)
}

func (s *Store) UpdateCharacter(ctx context.Context, c *types.Character, avatarChanged bool) error {
	return s.updateCharacter(ctx, c, avatarChanged)
}

func (s *Store) avatarID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var raw string
	err := s.queryRow(ctx, s.db, "SELECT avatar_id FROM characters WHERE character_id = ?", id.String()).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, types.ErrNotFound
	case err != nil:
		return uuid.Nil, fmt.Errorf("reading character %s: %w", id, err)
	case raw == "":
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

// updateCharacter writes the character row. The stored avatar is kept unless
// avatarChanged, in which case the old image is dropped and the current
// bytes, if any, are stored under a new id.
func (s *Store) updateCharacter(ctx context.Context, c *types.Character, avatarChanged bool) error {
	avatarID, err := s.avatarID(ctx, c.ID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	if avatarChanged {
		if avatarID != uuid.Nil {
			if err := s.images.Delete(ctx, blob.AvatarKey(avatarID)); err != nil {
				return fmt.Errorf("deleting avatar: %w", err)
			}
			avatarID = uuid.Nil
		}
		if len(c.Avatar) > 0 {
			avatarID = uuid.New()
			if err := s.images.Put(ctx, blob.AvatarKey(avatarID), c.Avatar, "image/png"); err != nil {
				return fmt.Errorf("storing avatar: %w", err)
			}
		}
	}

	rec, err := marshal(record.Character{Character: *c, AvatarID: avatarID})
	if err != nil {
		return err
	}
	stored := ""
	if avatarID != uuid.Nil {
		stored = avatarID.String()
	}
	if _, err := s.exec(ctx, s.db, upsertCharacterQuery, c.ID.String(), stored, rec); err != nil {
		return fmt.Errorf("writing character %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) DeleteCharacter(ctx context.Context, n *types.Novel, c *types.Character) error {
	if err := s.writeNovel(ctx, s.db, n, false); err != nil {
		return err
	}
	return s.deleteCharacter(ctx, c.ID)
}

func (s *Store) deleteCharacter(ctx context.Context, id uuid.UUID) error {
	avatarID, err := s.avatarID(ctx, id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	if avatarID != uuid.Nil {
		if err := s.images.Delete(ctx, blob.AvatarKey(avatarID)); err != nil {
			return fmt.Errorf("deleting avatar: %w", err)
		}
	}
	_, err = s.exec(ctx, s.db, "DELETE FROM characters WHERE character_id = ?", id.String())
	return err
}

func (s *Store) InsertScene(ctx context.Context, n *types.Novel, sc *types.Scene) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.writeScene(ctx, tx, sc); err != nil {
			return err
		}
		return s.writeNovel(ctx, tx, n, false)
	})
}

func (s *Store) UpdateScene(ctx context.Context, sc *types.Scene) error {
	return s.writeScene(ctx, s.db, sc)
}

func (s *Store) DeleteScene(ctx context.Context, n *types.Novel, sc *types.Scene) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.writeNovel(ctx, tx, n, false); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx, "DELETE FROM scenes WHERE scene_id = ?", sc.ID.String())
		return err
	})
}

// UpdateDocument writes the document's content. The tree itself is part of
// the novel record.
func (s *Store) UpdateDocument(ctx context.Context, n *types.Novel, d *types.Document) error {
	return s.writeDocument(ctx, s.db, n.ID, d)
}

func (s *Store) DeleteDocument(ctx context.Context, _ *types.Novel, d *types.Document) error {
	_, err := s.exec(ctx, s.db, "DELETE FROM documents WHERE document_id = ?", d.ID.String())
	return err
}

func (s *Store) UpdateDiagram(ctx context.Context, _ *types.Novel, d *types.Diagram) error {
	return s.writeDiagram(ctx, s.db, d)
}

func (s *Store) UpdateWorld(ctx context.Context, n *types.Novel) error {
	return s.writeWorld(ctx, s.db, n)
}
