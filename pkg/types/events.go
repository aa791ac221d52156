package types

import "github.com/google/uuid"

// Event is a structural change announced to listeners after the graph has
// been repaired. Events are fire-and-forget.
type Event interface {
	// Name is a stable identifier suitable for logs.
	Name() string
}

// CharacterDeleted is emitted after a character and its references are gone.
type CharacterDeleted struct {
	CharacterID uuid.UUID
}

func (CharacterDeleted) Name() string { return "character_deleted" }

// SceneDeleted is emitted after a scene is removed from the novel.
type SceneDeleted struct {
	SceneID uuid.UUID
}

func (SceneDeleted) Name() string { return "scene_deleted" }

// StorylineCharacterChanged is emitted when a plot loses or gains its owning
// character.
type StorylineCharacterChanged struct {
	PlotID uuid.UUID
}

func (StorylineCharacterChanged) Name() string { return "storyline_character_changed" }

// StorylineRemoved is emitted after a plot is deleted.
type StorylineRemoved struct {
	PlotID uuid.UUID
}

func (StorylineRemoved) Name() string { return "storyline_removed" }
