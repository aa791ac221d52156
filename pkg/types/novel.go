package types

import (
	"slices"

	"github.com/google/uuid"
)

// NovelDescriptor is the lightweight project-level view of a novel.
type NovelDescriptor struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Subtitle string    `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
}

// Novel is the root aggregate. It owns every character, scene, conflict, plot,
// document, diagram and the world-building tree of one book.
type Novel struct {
	NovelDescriptor `yaml:",inline"`

	Characters []*Character   `json:"characters" yaml:"characters"`
	Scenes     []*Scene       `json:"scenes" yaml:"scenes"`
	Conflicts  []*Conflict    `json:"conflicts" yaml:"conflicts"`
	Plots      []*Plot        `json:"plots" yaml:"plots"`
	Documents  []*Document    `json:"documents" yaml:"documents"`
	Diagrams   []*Diagram     `json:"diagrams" yaml:"diagrams"`
	World      *WorldBuilding `json:"world,omitempty" yaml:"world,omitempty"`
}

// NewNovel returns an empty novel with a fresh id.
func NewNovel(title string) *Novel {
	return &Novel{NovelDescriptor: NovelDescriptor{ID: uuid.New(), Title: title}}
}

// Descriptor returns a copy of the novel's descriptor.
func (n *Novel) Descriptor() NovelDescriptor {
	return n.NovelDescriptor
}

// Character returns the character with the given id, or nil.
func (n *Novel) Character(id uuid.UUID) *Character {
	for _, c := range n.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Scene returns the scene with the given id, or nil.
func (n *Novel) Scene(id uuid.UUID) *Scene {
	for _, s := range n.Scenes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Plot returns the plot with the given id, or nil.
func (n *Novel) Plot(id uuid.UUID) *Plot {
	for _, p := range n.Plots {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Conflict returns the conflict with the given id, or nil.
func (n *Novel) Conflict(id uuid.UUID) *Conflict {
	for _, c := range n.Conflicts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Graph accessors used by the consistency rules.

func (n *Novel) AllCharacters() []*Character { return n.Characters }
func (n *Novel) AllScenes() []*Scene         { return n.Scenes }
func (n *Novel) AllConflicts() []*Conflict   { return n.Conflicts }
func (n *Novel) AllPlots() []*Plot           { return n.Plots }

// RemoveCharacter drops the character from the novel and reports whether it
// was present.
func (n *Novel) RemoveCharacter(id uuid.UUID) bool {
	i := slices.IndexFunc(n.Characters, func(c *Character) bool { return c.ID == id })
	if i < 0 {
		return false
	}
	n.Characters = slices.Delete(n.Characters, i, i+1)
	return true
}

// RemoveScene drops the scene from the novel and reports whether it was present.
func (n *Novel) RemoveScene(id uuid.UUID) bool {
	i := slices.IndexFunc(n.Scenes, func(s *Scene) bool { return s.ID == id })
	if i < 0 {
		return false
	}
	n.Scenes = slices.Delete(n.Scenes, i, i+1)
	return true
}

// RemovePlot drops the plot from the novel and reports whether it was present.
func (n *Novel) RemovePlot(id uuid.UUID) bool {
	i := slices.IndexFunc(n.Plots, func(p *Plot) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	n.Plots = slices.Delete(n.Plots, i, i+1)
	return true
}

// RemoveConflicts drops every conflict matching pred and returns the removed ones
// in their original order.
func (n *Novel) RemoveConflicts(pred func(*Conflict) bool) []*Conflict {
	var removed []*Conflict
	kept := n.Conflicts[:0]
	for _, c := range n.Conflicts {
		if pred(c) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	clear(n.Conflicts[len(kept):])
	n.Conflicts = kept
	return removed
}

// Clone returns a deep copy of the novel. The copy shares no memory with n.
func (n *Novel) Clone() *Novel {
	if n == nil {
		return nil
	}
	out := &Novel{NovelDescriptor: n.NovelDescriptor}
	out.Characters = cloneAll(n.Characters, (*Character).Clone)
	out.Scenes = cloneAll(n.Scenes, (*Scene).Clone)
	out.Conflicts = cloneAll(n.Conflicts, (*Conflict).Clone)
	out.Plots = cloneAll(n.Plots, (*Plot).Clone)
	out.Documents = cloneAll(n.Documents, (*Document).Clone)
	out.Diagrams = cloneAll(n.Diagrams, (*Diagram).Clone)
	out.World = n.World.Clone()
	return out
}

func cloneAll[T any](in []*T, clone func(*T) *T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
