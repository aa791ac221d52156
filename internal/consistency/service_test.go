package consistency

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/plotbook/internal/persistence"
	"github.com/mesh-intelligence/plotbook/internal/persistence/persistencetest"
	"github.com/mesh-intelligence/plotbook/pkg/types"
)

type answer struct {
	reply    bool
	messages []string
	titles   []string
}

func (a *answer) Confirm(message, title string) bool {
	a.messages = append(a.messages, message)
	a.titles = append(a.titles, title)
	return a.reply
}

type emitted struct {
	events []types.Event
}

func (e *emitted) Emit(_ *types.Novel, ev types.Event) { e.events = append(e.events, ev) }

func newTestService(t *testing.T, reply bool) (*Service, *persistence.Manager, *persistencetest.Backend, *answer, *emitted) {
	t.Helper()
	backend := persistencetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := persistence.NewManager(backend, persistence.WithLogger(logger), persistence.WithFlushInterval(0))
	prompter := &answer{reply: reply}
	notifier := &emitted{}
	return NewService(m, prompter, notifier, logger), m, backend, prompter, notifier
}

func TestServiceDeleteCharacterDeclined(t *testing.T) {
	svc, m, _, prompter, notifier := newTestService(t, false)
	c := newCast()

	ok, err := svc.DeleteCharacter(c.novel, c.alice, false)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, prompter.messages, 1)
	assert.Contains(t, prompter.messages[0], "Alice")
	assert.Equal(t, "Delete character", prompter.titles[0])
	assert.Len(t, c.novel.Characters, 2)
	assert.Equal(t, 0, m.Pending())
	assert.Empty(t, notifier.events)
}

func TestServiceDeleteCharacterCascadeReachesBackend(t *testing.T) {
	svc, m, backend, prompter, notifier := newTestService(t, true)
	c := newCast()

	ok, err := svc.DeleteCharacter(c.novel, c.alice, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, prompter.messages, 1)
	assert.Equal(t, 6, m.Pending())

	_, err = m.Flush(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"DeleteCharacter", "UpdateNovel", "UpdateScene", "UpdateScene"}, backend.Methods())

	// The coalesced novel write carries the state after the last plot fix.
	calls := backend.Calls()
	written := calls[1].Entity.(*types.Novel)
	assert.Len(t, written.Conflicts, 1)
	assert.Zero(t, written.Plot(c.subPlot.ID).RelationCharacterID)

	assert.Equal(t, []types.Event{
		types.StorylineCharacterChanged{PlotID: c.mainPlot.ID},
		types.CharacterDeleted{CharacterID: c.alice.ID},
	}, notifier.events)
}

func TestServiceForcedDeleteSkipsPrompt(t *testing.T) {
	svc, _, _, prompter, _ := newTestService(t, false)
	c := newCast()

	ok, err := svc.DeleteCharacter(c.novel, c.bob, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.DeleteScene(c.novel, c.middle, true)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Empty(t, prompter.messages)
}

func TestServiceDeleteSceneWarnsAboutWordCount(t *testing.T) {
	svc, m, backend, prompter, notifier := newTestService(t, true)
	c := newCast()
	c.opening.WordCount = 1200

	ok, err := svc.DeleteScene(c.novel, c.opening, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, prompter.messages[0], "1200 words")

	ok, err = svc.DeleteScene(c.novel, c.unrelated, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, prompter.messages[1], "words")

	_, err = m.Flush(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"DeleteScene", "DeleteScene"}, backend.Methods())
	assert.Equal(t, []*types.Scene{c.middle}, c.novel.Scenes)
	assert.Len(t, notifier.events, 2)
}

func TestServiceDeleteSceneDeclined(t *testing.T) {
	svc, m, _, _, _ := newTestService(t, false)
	c := newCast()

	ok, err := svc.DeleteScene(c.novel, c.opening, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, c.novel.Scenes, 3)
	assert.Equal(t, 0, m.Pending())
}

func TestServiceDeletePlot(t *testing.T) {
	svc, m, backend, prompter, notifier := newTestService(t, false)
	c := newCast()

	require.NoError(t, svc.DeletePlot(c.novel, c.mainPlot))
	assert.Empty(t, prompter.messages)

	_, err := m.Flush(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"UpdateNovel", "UpdateScene", "UpdateScene"}, backend.Methods())
	assert.Equal(t, []types.Event{types.StorylineRemoved{PlotID: c.mainPlot.ID}}, notifier.events)
}

func TestServiceMissingEntity(t *testing.T) {
	svc, m, _, prompter, _ := newTestService(t, true)
	c := newCast()

	_, err := svc.DeleteCharacter(c.novel, types.NewCharacter("ghost"), false)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = svc.DeleteScene(c.novel, types.NewScene("ghost"), false)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, svc.DeletePlot(c.novel, types.NewPlot("ghost")), types.ErrNotFound)
	_, err = svc.DeleteScene(nil, c.opening, true)
	assert.ErrorIs(t, err, types.ErrNilEntity)

	assert.Empty(t, prompter.messages)
	assert.Equal(t, 0, m.Pending())
}

func TestServiceApplyReportsPersistFailures(t *testing.T) {
	backend := persistencetest.New()
	boom := errors.New("read-only")
	backend.FailOn("UpdateScene", boom)
	m := persistence.NewManager(backend, persistence.WithMode(types.ModeImmediate))
	notifier := &emitted{}
	svc := NewService(m, nil, notifier, nil)
	c := newCast()

	err := svc.DeletePlot(c.novel, c.mainPlot)
	require.ErrorIs(t, err, boom)

	// The graph stays changed and listeners still hear about it.
	assert.Len(t, c.novel.Plots, 1)
	assert.Len(t, notifier.events, 1)
	assert.Positive(t, m.Pending())
}
