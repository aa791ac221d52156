// Package consistency keeps the novel graph referentially intact when
// characters, scenes and plots are deleted.
//
// The Remove* rules mutate a Graph and return a Result describing what must
// be persisted and announced. Service wraps them with confirmation, the
// persistence calls and event emission.
package consistency

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Graph is the part of a novel the rules read and mutate.
type Graph interface {
	AllCharacters() []*types.Character
	AllScenes() []*types.Scene
	AllConflicts() []*types.Conflict
	AllPlots() []*types.Plot

	RemoveCharacter(id uuid.UUID) bool
	RemoveScene(id uuid.UUID) bool
	RemovePlot(id uuid.UUID) bool
	RemoveConflicts(match func(*types.Conflict) bool) []*types.Conflict
}

var _ Graph = (*types.Novel)(nil)

// ChangeKind is the persistence call a Change stands for.
type ChangeKind int

const (
	CharacterDeleted ChangeKind = iota
	SceneDeleted
	NovelUpdated
	SceneUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case CharacterDeleted:
		return "character_deleted"
	case SceneDeleted:
		return "scene_deleted"
	case NovelUpdated:
		return "novel_updated"
	case SceneUpdated:
		return "scene_updated"
	default:
		return "unknown"
	}
}

// Change is one entity that must be written after a rule ran.
type Change struct {
	Kind      ChangeKind
	Character *types.Character
	Scene     *types.Scene
}

// Result is the outcome of a rule, in the order effects must be applied.
type Result struct {
	Changes          []Change
	Events           []types.Event
	RemovedConflicts []*types.Conflict
}

func (r *Result) change(c Change)    { r.Changes = append(r.Changes, c) }
func (r *Result) emit(e types.Event) { r.Events = append(r.Events, e) }
func (r *Result) novelUpdated()      { r.change(Change{Kind: NovelUpdated}) }
func (r *Result) sceneUpdated(s *types.Scene) {
	r.change(Change{Kind: SceneUpdated, Scene: s})
}

// RemoveCharacter deletes c from g and clears every reference to it:
// conflicts on either side are dropped, scenes lose it as point of view,
// participant and agenda owner, agenda references to the dropped conflicts
// are pruned and plots forget it as main or relation character.
//
// Returns types.ErrNotFound, with g untouched, if c is not part of g.
func RemoveCharacter(g Graph, c *types.Character) (Result, error) {
	var res Result
	if c == nil {
		return res, types.ErrNilEntity
	}
	if !g.RemoveCharacter(c.ID) {
		return res, types.ErrNotFound
	}
	res.change(Change{Kind: CharacterDeleted, Character: c})

	res.RemovedConflicts = g.RemoveConflicts(func(cf *types.Conflict) bool {
		return cf.Involves(c.ID)
	})
	removed := make(map[uuid.UUID]bool, len(res.RemovedConflicts))
	for _, cf := range res.RemovedConflicts {
		removed[cf.ID] = true
	}
	if len(removed) > 0 {
		res.novelUpdated()
	}

	for _, s := range g.AllScenes() {
		touched := false
		if s.PovID == c.ID {
			s.PovID = uuid.Nil
			touched = true
		}
		if s.RemoveCharacter(c.ID) {
			touched = true
		}
		for _, agenda := range s.Agendas {
			if agenda.CharacterID == c.ID {
				agenda.Reset()
				touched = true
			} else if agenda.RemoveConflicts(removed) {
				touched = true
			}
		}
		if touched {
			res.sceneUpdated(s)
		}
	}

	for _, p := range g.AllPlots() {
		if p.CharacterID == c.ID {
			p.CharacterID = uuid.Nil
			res.novelUpdated()
			res.emit(types.StorylineCharacterChanged{PlotID: p.ID})
		}
		if p.RelationCharacterID == c.ID {
			p.RelationCharacterID = uuid.Nil
			res.novelUpdated()
		}
	}

	res.emit(types.CharacterDeleted{CharacterID: c.ID})
	return res, nil
}

// RemoveScene deletes s from g. Nothing else references scenes.
func RemoveScene(g Graph, s *types.Scene) (Result, error) {
	var res Result
	if s == nil {
		return res, types.ErrNilEntity
	}
	if !g.RemoveScene(s.ID) {
		return res, types.ErrNotFound
	}
	res.change(Change{Kind: SceneDeleted, Scene: s})
	res.emit(types.SceneDeleted{SceneID: s.ID})
	return res, nil
}

// RemovePlot deletes p from g and prunes the plot values scenes hold for it.
func RemovePlot(g Graph, p *types.Plot) (Result, error) {
	var res Result
	if p == nil {
		return res, types.ErrNilEntity
	}
	if !g.RemovePlot(p.ID) {
		return res, types.ErrNotFound
	}
	res.novelUpdated()

	for _, s := range g.AllScenes() {
		if s.RemovePlotValues(p.ID) {
			res.sceneUpdated(s)
		}
	}

	res.emit(types.StorylineRemoved{PlotID: p.ID})
	return res, nil
}
