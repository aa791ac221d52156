package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// match finds the single item that ref names. A ref is a full id, an id
// prefix or a case-insensitive name.
func match[T any](items []T, ref, kind string, id func(T) uuid.UUID, name func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, fmt.Errorf("empty %s reference: %w", kind, types.ErrInvalidRef)
	}
	if parsed, err := uuid.Parse(ref); err == nil {
		for _, item := range items {
			if id(item) == parsed {
				return item, nil
			}
		}
		return zero, fmt.Errorf("%s %s: %w", kind, ref, types.ErrNotFound)
	}

	lower := strings.ToLower(ref)
	var found []T
	for _, item := range items {
		if strings.EqualFold(name(item), ref) || strings.HasPrefix(id(item).String(), lower) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%s %q: %w", kind, ref, types.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%s %q matches %d entries: %w", kind, ref, len(found), types.ErrInvalidRef)
	}
}

func findCharacter(n *types.Novel, ref string) (*types.Character, error) {
	return match(n.Characters, ref, "character",
		func(c *types.Character) uuid.UUID { return c.ID },
		func(c *types.Character) string { return c.Name })
}

func findScene(n *types.Novel, ref string) (*types.Scene, error) {
	return match(n.Scenes, ref, "scene",
		func(s *types.Scene) uuid.UUID { return s.ID },
		func(s *types.Scene) string { return s.Title })
}

func findPlot(n *types.Novel, ref string) (*types.Plot, error) {
	return match(n.Plots, ref, "plot",
		func(p *types.Plot) uuid.UUID { return p.ID },
		func(p *types.Plot) string { return p.Text })
}

// findCharacters resolves a list of character refs, skipping empty ones.
func findCharacters(n *types.Novel, refs []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		c, err := findCharacter(n, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// optionalCharacter resolves ref, or returns uuid.Nil when ref is empty.
func optionalCharacter(n *types.Novel, ref string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, nil
	}
	c, err := findCharacter(n, ref)
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

func shortID(id uuid.UUID) string { return id.String()[:8] }
