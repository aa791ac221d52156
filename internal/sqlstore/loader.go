package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/internal/record"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// FetchNovel loads the full aggregate. Members listed by the novel record but
// missing from their tables are skipped with a warning.
func (s *Store) FetchNovel(ctx context.Context, id uuid.UUID) (*types.Novel, error) {
	var title, subtitle, raw string
	err := s.queryRow(ctx, s.db, "SELECT title, subtitle, record FROM novels WHERE novel_id = ?", id.String()).
		Scan(&title, &subtitle, &raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("novel %s: %w", id, types.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("reading novel %s: %w", id, err)
	}
	var rec record.Novel
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding novel %s: %w", id, err)
	}
	rec.Title, rec.Subtitle = title, subtitle

	parts := record.Parts{
		Characters: make(map[uuid.UUID]*types.Character),
		Scenes:     make(map[uuid.UUID]*types.Scene),
		Contents:   make(map[uuid.UUID]string),
		Diagrams:   make(map[uuid.UUID]*types.Diagram),
	}
	for _, cid := range rec.Characters {
		c, err := s.loadCharacter(ctx, cid)
		if errors.Is(err, types.ErrNotFound) {
			s.logger.Warn("character record missing", "novel", id, "character", cid)
			continue
		}
		if err != nil {
			return nil, err
		}
		parts.Characters[cid] = c
	}
	for _, sid := range rec.Scenes {
		var sc types.Scene
		err := s.loadRecord(ctx, "SELECT record FROM scenes WHERE scene_id = ?", sid, &sc)
		if errors.Is(err, types.ErrNotFound) {
			s.logger.Warn("scene record missing", "novel", id, "scene", sid)
			continue
		}
		if err != nil {
			return nil, err
		}
		parts.Scenes[sid] = &sc
	}
	for _, did := range rec.Diagrams {
		var d types.Diagram
		err := s.loadRecord(ctx, "SELECT record FROM diagrams WHERE diagram_id = ?", did, &d)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parts.Diagrams[did] = &d
	}
	var world types.WorldBuilding
	switch err := s.loadRecord(ctx, "SELECT record FROM worlds WHERE novel_id = ?", id, &world); {
	case err == nil:
		parts.World = &world
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}
	if err := s.loadContents(ctx, id, parts.Contents); err != nil {
		return nil, err
	}

	return record.Assemble(rec, parts), nil
}

// loadRecord decodes the single JSON column selected by query for id into v.
func (s *Store) loadRecord(ctx context.Context, query string, id uuid.UUID, v any) error {
	var raw string
	err := s.queryRow(ctx, s.db, query, id.String()).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return types.ErrNotFound
	case err != nil:
		return fmt.Errorf("reading %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding %s: %w", id, err)
	}
	return nil
}

func (s *Store) loadContents(ctx context.Context, novelID uuid.UUID, into map[uuid.UUID]string) error {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind("SELECT document_id, content FROM documents WHERE novel_id = ?"), novelID.String())
	if err != nil {
		return fmt.Errorf("reading documents of %s: %w", novelID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("document id %q: %w", id, types.ErrInvalidID)
		}
		into[parsed] = content
	}
	return rows.Err()
}

func (s *Store) loadCharacter(ctx context.Context, id uuid.UUID) (*types.Character, error) {
	var rec record.Character
	if err := s.loadRecord(ctx, "SELECT record FROM characters WHERE character_id = ?", id, &rec); err != nil {
		return nil, err
	}
	c := rec.Character
	if rec.AvatarID != uuid.Nil {
		data, err := s.images.Get(ctx, blob.AvatarKey(rec.AvatarID))
		switch {
		case err == nil:
			c.Avatar = data
		case errors.Is(err, types.ErrNotFound):
			s.logger.Warn("avatar image missing", "character", id, "avatar", rec.AvatarID)
		default:
			return nil, fmt.Errorf("loading avatar: %w", err)
		}
	}
	return &c, nil
}
