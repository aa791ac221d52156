package types

import (
	"slices"

	"github.com/google/uuid"
)

// Character is a person in the novel. Avatar holds raw image bytes; the
// backend decides where they are stored.
type Character struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Role    string    `json:"role,omitempty" yaml:"role,omitempty"`
	Gender  string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	Summary string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Avatar  []byte    `json:"-" yaml:"-"`
}

// NewCharacter returns a character with a fresh id.
func NewCharacter(name string) *Character {
	return &Character{ID: uuid.New(), Name: name}
}

// Clone returns a deep copy of c.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := *c
	out.Avatar = slices.Clone(c.Avatar)
	return &out
}

// Conflict types.
const (
	ConflictCharacter    = "character"
	ConflictSociety      = "society"
	ConflictNature       = "nature"
	ConflictTechnology   = "technology"
	ConflictSupernatural = "supernatural"
	ConflictSelf         = "self"
)

// Conflict opposes a character to another character or to an outside force.
type Conflict struct {
	ID                     uuid.UUID `json:"id" yaml:"id"`
	Text                   string    `json:"text" yaml:"text"`
	Type                   string    `json:"type" yaml:"type"`
	CharacterID            uuid.UUID `json:"character_id" yaml:"character_id"`
	ConflictingCharacterID uuid.UUID `json:"conflicting_character_id,omitempty" yaml:"conflicting_character_id,omitempty"`
}

// Involves reports whether the character is either side of the conflict.
func (c *Conflict) Involves(characterID uuid.UUID) bool {
	return c.CharacterID == characterID || c.ConflictingCharacterID == characterID
}

// Clone returns a copy of c.
func (c *Conflict) Clone() *Conflict {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
