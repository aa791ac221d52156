package types

import (
	"slices"

	"github.com/google/uuid"
)

// Scene types.
const (
	SceneDefault  = ""
	SceneAction   = "action"
	SceneReaction = "reaction"
)

// Scene is a unit of the manuscript. PovID is uuid.Nil when no point-of-view
// character is assigned.
type Scene struct {
	ID           uuid.UUID        `json:"id" yaml:"id"`
	Title        string           `json:"title" yaml:"title"`
	Synopsis     string           `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
	Type         string           `json:"type,omitempty" yaml:"type,omitempty"`
	PovID        uuid.UUID        `json:"pov_id" yaml:"pov_id"`
	CharacterIDs []uuid.UUID      `json:"character_ids" yaml:"character_ids"`
	Agendas      []*SceneAgenda   `json:"agendas" yaml:"agendas"`
	PlotValues   []ScenePlotValue `json:"plot_values" yaml:"plot_values"`
	WordCount    int              `json:"word_count" yaml:"word_count"`
}

// NewScene returns a scene with a fresh id and one empty agenda.
func NewScene(title string) *Scene {
	return &Scene{ID: uuid.New(), Title: title, Agendas: []*SceneAgenda{{}}}
}

// HasCharacter reports whether the character takes part in the scene.
func (s *Scene) HasCharacter(id uuid.UUID) bool {
	return slices.Contains(s.CharacterIDs, id)
}

// RemoveCharacter drops the character from the scene's cast.
func (s *Scene) RemoveCharacter(id uuid.UUID) bool {
	n := len(s.CharacterIDs)
	s.CharacterIDs = slices.DeleteFunc(s.CharacterIDs, func(c uuid.UUID) bool { return c == id })
	return len(s.CharacterIDs) != n
}

// RemovePlotValues drops every plot value that references the plot.
func (s *Scene) RemovePlotValues(plotID uuid.UUID) bool {
	n := len(s.PlotValues)
	s.PlotValues = slices.DeleteFunc(s.PlotValues, func(v ScenePlotValue) bool { return v.PlotID == plotID })
	return len(s.PlotValues) != n
}

// Clone returns a deep copy of s.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	out := *s
	out.CharacterIDs = slices.Clone(s.CharacterIDs)
	out.Agendas = cloneAll(s.Agendas, (*SceneAgenda).Clone)
	out.PlotValues = slices.Clone(s.PlotValues)
	return &out
}

// SceneAgenda is what one character wants, fights and feels in a scene.
type SceneAgenda struct {
	CharacterID      uuid.UUID           `json:"character_id" yaml:"character_id"`
	ConflictRefs     []ConflictReference `json:"conflict_references" yaml:"conflict_references"`
	GoalRefs         []GoalReference     `json:"goal_references" yaml:"goal_references"`
	Outcome          string              `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	BeginningEmotion int                 `json:"beginning_emotion" yaml:"beginning_emotion"`
	EndingEmotion    int                 `json:"ending_emotion" yaml:"ending_emotion"`
}

// Reset clears the agenda's character together with everything that only makes
// sense for that character.
func (a *SceneAgenda) Reset() {
	a.CharacterID = uuid.Nil
	a.ConflictRefs = nil
	a.GoalRefs = nil
}

// RemoveConflicts drops references to any of the given conflicts.
func (a *SceneAgenda) RemoveConflicts(ids map[uuid.UUID]bool) bool {
	n := len(a.ConflictRefs)
	a.ConflictRefs = slices.DeleteFunc(a.ConflictRefs, func(r ConflictReference) bool { return ids[r.ConflictID] })
	return len(a.ConflictRefs) != n
}

// Clone returns a deep copy of a.
func (a *SceneAgenda) Clone() *SceneAgenda {
	if a == nil {
		return nil
	}
	out := *a
	out.ConflictRefs = slices.Clone(a.ConflictRefs)
	out.GoalRefs = slices.Clone(a.GoalRefs)
	return &out
}

// ConflictReference links an agenda to a novel-level conflict.
type ConflictReference struct {
	ConflictID uuid.UUID `json:"conflict_id" yaml:"conflict_id"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
	Intensity  int       `json:"intensity" yaml:"intensity"`
}

// GoalReference links an agenda to one of the character's goals.
type GoalReference struct {
	GoalID  uuid.UUID `json:"goal_id" yaml:"goal_id"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
}

// ScenePlotValue records how a scene advances a plot.
type ScenePlotValue struct {
	PlotID uuid.UUID `json:"plot_id" yaml:"plot_id"`
	Value  int       `json:"value" yaml:"value"`
}
