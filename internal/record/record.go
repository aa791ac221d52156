// Package record defines the persisted shapes of the novel aggregate. Every
// backend stores the same records, so a workspace directory, a SQLite file and
// a Postgres schema hold interchangeable data.
package record

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Novel is the stored form of a novel. Characters, scenes and diagrams live in
// their own records and are referenced by id, in display order.
type Novel struct {
	ID         uuid.UUID         `json:"id"`
	Title      string            `json:"title"`
	Subtitle   string            `json:"subtitle,omitempty"`
	Characters []uuid.UUID       `json:"characters"`
	Scenes     []uuid.UUID       `json:"scenes"`
	Conflicts  []*types.Conflict `json:"conflicts"`
	Plots      []*types.Plot     `json:"plots"`
	Documents  []*types.Document `json:"documents"`
	Diagrams   []uuid.UUID       `json:"diagrams"`
}

// Character is the stored form of a character. The avatar bytes are kept
// apart and addressed by AvatarID.
type Character struct {
	types.Character
	AvatarID uuid.UUID `json:"avatar_id,omitempty"`
}

// Project lists the novels of a workspace.
type Project struct {
	Novels []types.NovelDescriptor `json:"novels"`
}

// FromNovel builds the record for n.
func FromNovel(n *types.Novel) Novel {
	r := Novel{
		ID:         n.ID,
		Title:      n.Title,
		Subtitle:   n.Subtitle,
		Characters: make([]uuid.UUID, 0, len(n.Characters)),
		Scenes:     make([]uuid.UUID, 0, len(n.Scenes)),
		Conflicts:  nonNil(n.Conflicts),
		Plots:      nonNil(n.Plots),
		Documents:  nonNil(n.Documents),
		Diagrams:   make([]uuid.UUID, 0, len(n.Diagrams)),
	}
	for _, c := range n.Characters {
		r.Characters = append(r.Characters, c.ID)
	}
	for _, s := range n.Scenes {
		r.Scenes = append(r.Scenes, s.ID)
	}
	for _, d := range n.Diagrams {
		r.Diagrams = append(r.Diagrams, d.ID)
	}
	return r
}

// Descriptor returns the project-level view of the record.
func (r Novel) Descriptor() types.NovelDescriptor {
	return types.NovelDescriptor{ID: r.ID, Title: r.Title, Subtitle: r.Subtitle}
}

// Parts holds the separately stored members of one novel.
type Parts struct {
	Characters map[uuid.UUID]*types.Character
	Scenes     map[uuid.UUID]*types.Scene
	Contents   map[uuid.UUID]string
	Diagrams   map[uuid.UUID]*types.Diagram
	World      *types.WorldBuilding
}

// Assemble rebuilds the aggregate from its record and parts. Ids listed in the
// record without a matching part are skipped; a member stored without being
// listed is ignored.
func Assemble(r Novel, p Parts) *types.Novel {
	n := &types.Novel{
		NovelDescriptor: r.Descriptor(),
		Conflicts:       r.Conflicts,
		Plots:           r.Plots,
		Documents:       r.Documents,
		World:           p.World,
	}
	for _, id := range r.Characters {
		if c, ok := p.Characters[id]; ok {
			n.Characters = append(n.Characters, c)
		}
	}
	for _, id := range r.Scenes {
		if s, ok := p.Scenes[id]; ok {
			n.Scenes = append(n.Scenes, s)
		}
	}
	for _, id := range r.Diagrams {
		if d, ok := p.Diagrams[id]; ok {
			n.Diagrams = append(n.Diagrams, d)
		}
	}
	for _, d := range n.Documents {
		d.Walk(func(doc *types.Document) {
			doc.Content = p.Contents[doc.ID]
		})
	}
	return n
}

// DocumentIDs returns the ids of every document in the tree, depth first.
func DocumentIDs(docs []*types.Document) []uuid.UUID {
	var ids []uuid.UUID
	for _, d := range docs {
		d.Walk(func(doc *types.Document) { ids = append(ids, doc.ID) })
	}
	return ids
}

func nonNil[T any](in []*T) []*T {
	if in == nil {
		return []*T{}
	}
	return in
}
