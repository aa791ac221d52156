package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNovel() *Novel {
	n := NewNovel("The Long Night")
	alice := NewCharacter("Alice")
	alice.Avatar = []byte{1, 2, 3}
	bob := NewCharacter("Bob")
	n.Characters = []*Character{alice, bob}

	conflict := &Conflict{ID: uuid.New(), Text: "rivalry", Type: ConflictCharacter,
		CharacterID: alice.ID, ConflictingCharacterID: bob.ID}
	n.Conflicts = []*Conflict{conflict}

	plot := NewPlot("main")
	plot.CharacterID = alice.ID
	n.Plots = []*Plot{plot}

	scene := NewScene("Opening")
	scene.PovID = alice.ID
	scene.CharacterIDs = []uuid.UUID{alice.ID, bob.ID}
	scene.Agendas[0].CharacterID = alice.ID
	scene.Agendas[0].ConflictRefs = []ConflictReference{{ConflictID: conflict.ID, Intensity: 2}}
	scene.PlotValues = []ScenePlotValue{{PlotID: plot.ID, Value: 1}}
	n.Scenes = []*Scene{scene}

	notes := NewDocument("Notes")
	notes.Children = []*Document{NewDocument("Research")}
	n.Documents = []*Document{notes}
	n.Diagrams = []*Diagram{{ID: uuid.New(), Title: "Board", Nodes: []DiagramNode{{ID: uuid.New(), Text: "a"}}}}
	n.World = &WorldBuilding{Entities: []*WorldEntity{{ID: uuid.New(), Name: "City"}}}
	return n
}

func TestNovelCloneIsDeep(t *testing.T) {
	n := sampleNovel()
	c := n.Clone()

	require.Equal(t, n, c)

	n.Title = "changed"
	n.Characters[0].Name = "Alicia"
	n.Characters[0].Avatar[0] = 9
	n.Scenes[0].CharacterIDs[0] = uuid.Nil
	n.Scenes[0].Agendas[0].ConflictRefs[0].Intensity = 5
	n.Scenes[0].PlotValues[0].Value = 7
	n.Documents[0].Children[0].Title = "changed"
	n.Diagrams[0].Nodes[0].Text = "changed"
	n.World.Entities[0].Name = "Village"
	n.Characters = append(n.Characters, NewCharacter("Carol"))

	assert.Equal(t, "The Long Night", c.Title)
	assert.Equal(t, "Alice", c.Characters[0].Name)
	assert.Equal(t, byte(1), c.Characters[0].Avatar[0])
	assert.NotEqual(t, uuid.Nil, c.Scenes[0].CharacterIDs[0])
	assert.Equal(t, 2, c.Scenes[0].Agendas[0].ConflictRefs[0].Intensity)
	assert.Equal(t, 1, c.Scenes[0].PlotValues[0].Value)
	assert.Equal(t, "Research", c.Documents[0].Children[0].Title)
	assert.Equal(t, "a", c.Diagrams[0].Nodes[0].Text)
	assert.Equal(t, "City", c.World.Entities[0].Name)
	assert.Len(t, c.Characters, 2)
}

func TestNovelCloneNil(t *testing.T) {
	var n *Novel
	assert.Nil(t, n.Clone())
	var w *WorldBuilding
	assert.Nil(t, w.Clone())
}

func TestNovelRemove(t *testing.T) {
	n := sampleNovel()
	alice := n.Characters[0]

	assert.True(t, n.RemoveCharacter(alice.ID))
	assert.False(t, n.RemoveCharacter(alice.ID))
	assert.Nil(t, n.Character(alice.ID))

	scene := n.Scenes[0]
	assert.True(t, n.RemoveScene(scene.ID))
	assert.False(t, n.RemoveScene(scene.ID))

	plot := n.Plots[0]
	assert.True(t, n.RemovePlot(plot.ID))
	assert.Empty(t, n.Plots)
}

func TestNovelRemoveConflicts(t *testing.T) {
	n := sampleNovel()
	alice, bob := n.Characters[0], n.Characters[1]
	other := &Conflict{ID: uuid.New(), Type: ConflictNature, CharacterID: bob.ID}
	n.Conflicts = append(n.Conflicts, other)

	removed := n.RemoveConflicts(func(c *Conflict) bool { return c.Involves(alice.ID) })
	require.Len(t, removed, 1)
	assert.Equal(t, "rivalry", removed[0].Text)
	assert.Equal(t, []*Conflict{other}, n.Conflicts)
}

func TestSceneReferences(t *testing.T) {
	n := sampleNovel()
	s := n.Scenes[0]
	alice := n.Characters[0]

	assert.True(t, s.HasCharacter(alice.ID))
	assert.True(t, s.RemoveCharacter(alice.ID))
	assert.False(t, s.HasCharacter(alice.ID))
	assert.False(t, s.RemoveCharacter(alice.ID))

	assert.True(t, s.RemovePlotValues(n.Plots[0].ID))
	assert.False(t, s.RemovePlotValues(n.Plots[0].ID))

	a := s.Agendas[0]
	assert.True(t, a.RemoveConflicts(map[uuid.UUID]bool{n.Conflicts[0].ID: true}))
	assert.Empty(t, a.ConflictRefs)
	a.GoalRefs = []GoalReference{{GoalID: uuid.New()}}
	a.Reset()
	assert.Equal(t, uuid.Nil, a.CharacterID)
	assert.Nil(t, a.GoalRefs)
}

func TestDocumentWalk(t *testing.T) {
	root := NewDocument("root")
	child := NewDocument("child")
	child.Children = []*Document{NewDocument("grandchild")}
	root.Children = []*Document{child}

	var titles []string
	root.Walk(func(d *Document) { titles = append(titles, d.Title) })
	assert.Equal(t, []string{"root", "child", "grandchild"}, titles)
}
