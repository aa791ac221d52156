// Package storetest checks that a types.Store implementation behaves like
// every other backend.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/internal/blob"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Factory opens an empty store that keeps avatars in images.
type Factory func(t *testing.T, images blob.Store) types.Store

// Run runs the conformance suite against stores built by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s types.Store, images *blob.Memory)
	}{
		{"RoundTrip", testRoundTrip},
		{"NovelsInInsertOrder", testNovelsOrder},
		{"ProjectNovel", testProjectNovel},
		{"CharacterLifecycle", testCharacterLifecycle},
		{"SceneLifecycle", testSceneLifecycle},
		{"Documents", testDocuments},
		{"DiagramAndWorld", testDiagramAndWorld},
		{"DeleteNovel", testDeleteNovel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := blob.NewMemory()
			s := open(t, images)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s, images)
		})
	}
}

// Sample returns a novel that uses every member type.
func Sample() *types.Novel {
	n := types.NewNovel("The Left Hand of Darkness")
	n.Subtitle = "Hainish Cycle"

	genly := types.NewCharacter("Genly Ai")
	genly.Role = "envoy"
	genly.Avatar = []byte("genly.png")
	estraven := types.NewCharacter("Estraven")
	n.Characters = []*types.Character{genly, estraven}

	n.Conflicts = []*types.Conflict{{
		ID: uuid.New(), Text: "distrust", Type: types.ConflictCharacter,
		CharacterID: genly.ID, ConflictingCharacterID: estraven.ID,
	}}
	plot := types.NewPlot("Crossing the ice")
	plot.CharacterID = genly.ID
	plot.RelationCharacterID = estraven.ID
	n.Plots = []*types.Plot{plot}

	s := types.NewScene("Parade in Erhenrang")
	s.PovID = genly.ID
	s.CharacterIDs = []uuid.UUID{genly.ID, estraven.ID}
	s.Agendas[0].CharacterID = genly.ID
	s.Agendas[0].ConflictRefs = []types.ConflictReference{{ConflictID: n.Conflicts[0].ID, Intensity: 2}}
	s.PlotValues = []types.ScenePlotValue{{PlotID: plot.ID, Value: 1}}
	s.WordCount = 3200
	n.Scenes = []*types.Scene{s}

	notes := types.NewDocument("Gethen")
	notes.Content = "<p>Winter</p>"
	kemmer := types.NewDocument("Kemmer")
	kemmer.Content = "<p>cycle</p>"
	notes.Children = []*types.Document{kemmer}
	n.Documents = []*types.Document{notes}

	n.Diagrams = []*types.Diagram{{
		ID:    uuid.New(),
		Title: "Karhide court",
		Nodes: []types.DiagramNode{{ID: uuid.New(), Text: "Argaven", X: 10, Y: 20}},
		Edges: []types.DiagramEdge{{From: uuid.New(), To: uuid.New(), Label: "serves"}},
	}}
	n.World = &types.WorldBuilding{Entities: []*types.WorldEntity{{
		ID: uuid.New(), Name: "Gethen",
		Children: []*types.WorldEntity{{ID: uuid.New(), Name: "Karhide"}},
	}}}
	return n
}

func testRoundTrip(t *testing.T, s types.Store, images *blob.Memory) {
	ctx := context.Background()
	n := Sample()
	require.NoError(t, s.InsertNovel(ctx, n))
	assert.Len(t, images.Keys(), 1)

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)

	_, err = s.FetchNovel(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testNovelsOrder(t *testing.T, s types.Store, _ *blob.Memory) {
	ctx := context.Background()
	var want []types.NovelDescriptor
	for _, title := range []string{"Rocannon's World", "Planet of Exile", "City of Illusions"} {
		n := types.NewNovel(title)
		require.NoError(t, s.InsertNovel(ctx, n))
		want = append(want, n.Descriptor())
	}
	got, err := s.Novels(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func testProjectNovel(t *testing.T, s types.Store, _ *blob.Memory) {
	ctx := context.Background()
	n := types.NewNovel("Working title")
	require.NoError(t, s.InsertNovel(ctx, n))

	d := n.Descriptor()
	d.Title, d.Subtitle = "The Dispossessed", "An Ambiguous Utopia"
	require.NoError(t, s.UpdateProjectNovel(ctx, d))

	got, err := s.Novels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.NovelDescriptor{d}, got)

	fetched, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, d, fetched.Descriptor())

	assert.ErrorIs(t, s.UpdateProjectNovel(ctx, types.NovelDescriptor{ID: uuid.New()}), types.ErrNotFound)
}

func testCharacterLifecycle(t *testing.T, s types.Store, images *blob.Memory) {
	ctx := context.Background()
	n := types.NewNovel("n")
	require.NoError(t, s.InsertNovel(ctx, n))

	c := types.NewCharacter("Shevek")
	c.Avatar = []byte("v1")
	n.Characters = append(n.Characters, c)
	require.NoError(t, s.InsertCharacter(ctx, n, c))
	require.Len(t, images.Keys(), 1)

	c.Summary = "physicist"
	require.NoError(t, s.UpdateCharacter(ctx, c, false))
	c.Avatar = []byte("v2")
	require.NoError(t, s.UpdateCharacter(ctx, c, true))
	assert.Len(t, images.Keys(), 1)

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got.Characters, 1)
	assert.Equal(t, "physicist", got.Characters[0].Summary)
	assert.Equal(t, []byte("v2"), got.Characters[0].Avatar)

	n.Characters = nil
	require.NoError(t, s.DeleteCharacter(ctx, n, c))
	assert.Empty(t, images.Keys())
	got, err = s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Characters)
}

func testSceneLifecycle(t *testing.T, s types.Store, _ *blob.Memory) {
	ctx := context.Background()
	n := types.NewNovel("n")
	require.NoError(t, s.InsertNovel(ctx, n))

	first, second := types.NewScene("one"), types.NewScene("two")
	n.Scenes = []*types.Scene{first}
	require.NoError(t, s.InsertScene(ctx, n, first))
	n.Scenes = append(n.Scenes, second)
	require.NoError(t, s.InsertScene(ctx, n, second))

	first.Synopsis = "revised"
	require.NoError(t, s.UpdateScene(ctx, first))

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got.Scenes, 2)
	assert.Equal(t, "revised", got.Scenes[0].Synopsis)
	assert.Equal(t, second.ID, got.Scenes[1].ID)

	n.Scenes = n.Scenes[1:]
	require.NoError(t, s.DeleteScene(ctx, n, first))
	got, err = s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got.Scenes, 1)
	assert.Equal(t, second.ID, got.Scenes[0].ID)
}

func testDocuments(t *testing.T, s types.Store, _ *blob.Memory) {
	ctx := context.Background()
	n := types.NewNovel("n")
	doc := types.NewDocument("Outline")
	n.Documents = []*types.Document{doc}
	require.NoError(t, s.InsertNovel(ctx, n))

	doc.Content = "<h1>Act one</h1>"
	require.NoError(t, s.UpdateDocument(ctx, n, doc))
	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Act one</h1>", got.Documents[0].Content)

	require.NoError(t, s.DeleteDocument(ctx, n, doc))
	got, err = s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Documents[0].Content)
}

func testDiagramAndWorld(t *testing.T, s types.Store, _ *blob.Memory) {
	ctx := context.Background()
	n := types.NewNovel("n")
	require.NoError(t, s.InsertNovel(ctx, n))

	d := &types.Diagram{ID: uuid.New(), Title: "Relations", Nodes: []types.DiagramNode{}, Edges: []types.DiagramEdge{}}
	n.Diagrams = []*types.Diagram{d}
	require.NoError(t, s.UpdateNovel(ctx, n))
	require.NoError(t, s.UpdateDiagram(ctx, n, d))

	n.World = &types.WorldBuilding{Entities: []*types.WorldEntity{{ID: uuid.New(), Name: "Anarres"}}}
	require.NoError(t, s.UpdateWorld(ctx, n))

	got, err := s.FetchNovel(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got.Diagrams, 1)
	assert.Equal(t, "Relations", got.Diagrams[0].Title)
	assert.Equal(t, n.World, got.World)
}

func testDeleteNovel(t *testing.T, s types.Store, images *blob.Memory) {
	ctx := context.Background()
	keep := types.NewNovel("keep")
	n := Sample()
	require.NoError(t, s.InsertNovel(ctx, keep))
	require.NoError(t, s.InsertNovel(ctx, n))

	require.NoError(t, s.DeleteNovel(ctx, n))
	assert.Empty(t, images.Keys())

	list, err := s.Novels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.NovelDescriptor{keep.Descriptor()}, list)
	_, err = s.FetchNovel(ctx, n.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.DeleteNovel(ctx, n), types.ErrNotFound)
}
