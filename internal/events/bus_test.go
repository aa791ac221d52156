package events

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	novel := types.NewNovel("n")
	ev := types.SceneDeleted{SceneID: uuid.New()}

	var got []string
	bus.Subscribe(func(n *types.Novel, e types.Event) {
		assert.Same(t, novel, n)
		got = append(got, "first:"+e.Name())
	})
	bus.Subscribe(func(_ *types.Novel, e types.Event) {
		got = append(got, "second:"+e.Name())
	})

	bus.Emit(novel, ev)
	assert.Equal(t, []string{"first:scene_deleted", "second:scene_deleted"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsubscribe := bus.Subscribe(func(*types.Novel, types.Event) { calls++ })

	bus.Emit(nil, types.StorylineRemoved{})
	unsubscribe()
	unsubscribe()
	bus.Emit(nil, types.StorylineRemoved{})

	assert.Equal(t, 1, calls)
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(slog.New(slog.NewTextHandler(&buf, nil)))

	reached := false
	bus.Subscribe(func(*types.Novel, types.Event) { panic("bad listener") })
	bus.Subscribe(func(*types.Novel, types.Event) { reached = true })

	assert.NotPanics(t, func() { bus.Emit(nil, types.CharacterDeleted{}) })
	assert.True(t, reached)
	assert.Contains(t, buf.String(), "event handler panicked")
	assert.Contains(t, buf.String(), "bad listener")
}

func TestBusSubscribeDuringEmit(t *testing.T) {
	bus := NewBus(nil)
	late := 0
	bus.Subscribe(func(*types.Novel, types.Event) {
		bus.Subscribe(func(*types.Novel, types.Event) { late++ })
	})

	bus.Emit(nil, types.SceneDeleted{})
	assert.Equal(t, 0, late)
	bus.Emit(nil, types.SceneDeleted{})
	assert.Equal(t, 1, late)
}
