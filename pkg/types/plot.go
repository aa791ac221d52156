package types

import "github.com/google/uuid"

// Plot types.
const (
	PlotMain     = "main"
	PlotInternal = "internal"
	PlotSubplot  = "subplot"
	PlotRelation = "relation"
)

// Plot is a storyline. CharacterID is the storyline's owner; RelationCharacterID
// is the other side of a relationship plot. Either may be uuid.Nil.
type Plot struct {
	ID                  uuid.UUID `json:"id" yaml:"id"`
	Text                string    `json:"text" yaml:"text"`
	Type                string    `json:"type" yaml:"type"`
	CharacterID         uuid.UUID `json:"character_id" yaml:"character_id"`
	RelationCharacterID uuid.UUID `json:"relation_character_id" yaml:"relation_character_id"`
}

// NewPlot returns a main plot with a fresh id.
func NewPlot(text string) *Plot {
	return &Plot{ID: uuid.New(), Text: text, Type: PlotMain}
}

// Clone returns a copy of p.
func (p *Plot) Clone() *Plot {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
