// Package persistencetest provides a recording types.Backend for tests.
package persistencetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Call is one recorded backend invocation.
type Call struct {
	Method        string
	ID            uuid.UUID
	AvatarChanged bool
	// Entity is the value handed to the backend: *types.Novel,
	// types.NovelDescriptor, *types.Character, *types.Scene, *types.Document
	// or *types.Diagram.
	Entity any
}

// Backend records every call. Calls can be made to fail per method, or to
// block until released.
type Backend struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	gate     chan struct{}
}

var _ types.Backend = (*Backend)(nil)

// New returns an empty recording backend.
func New() *Backend {
	return &Backend{failures: make(map[string]error)}
}

// FailOn makes every call to method return err. A nil err clears it.
func (b *Backend) FailOn(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, method)
		return
	}
	b.failures[method] = err
}

// Block makes subsequent calls wait until the returned release func is
// called. Release is safe to call more than once.
func (b *Backend) Block() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gate == gate {
				b.gate = nil
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns a copy of the recorded calls in order. Failed calls are
// recorded too.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// Methods returns the method name of every recorded call.
func (b *Backend) Methods() []string {
	calls := b.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Reset forgets recorded calls.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) record(c Call) error {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
	return b.failures[c.Method]
}

func (b *Backend) InsertNovel(_ context.Context, n *types.Novel) error {
	return b.record(Call{Method: "InsertNovel", ID: n.ID, Entity: n})
}

func (b *Backend) UpdateNovel(_ context.Context, n *types.Novel) error {
	return b.record(Call{Method: "UpdateNovel", ID: n.ID, Entity: n})
}

func (b *Backend) DeleteNovel(_ context.Context, n *types.Novel) error {
	return b.record(Call{Method: "DeleteNovel", ID: n.ID, Entity: n})
}

func (b *Backend) UpdateProjectNovel(_ context.Context, d types.NovelDescriptor) error {
	return b.record(Call{Method: "UpdateProjectNovel", ID: d.ID, Entity: d})
}

func (b *Backend) InsertCharacter(_ context.Context, _ *types.Novel, c *types.Character) error {
	return b.record(Call{Method: "InsertCharacter", ID: c.ID, Entity: c})
}

func (b *Backend) UpdateCharacter(_ context.Context, c *types.Character, avatarChanged bool) error {
	return b.record(Call{Method: "UpdateCharacter", ID: c.ID, AvatarChanged: avatarChanged, Entity: c})
}

func (b *Backend) DeleteCharacter(_ context.Context, _ *types.Novel, c *types.Character) error {
	return b.record(Call{Method: "DeleteCharacter", ID: c.ID, Entity: c})
}

func (b *Backend) InsertScene(_ context.Context, _ *types.Novel, s *types.Scene) error {
	return b.record(Call{Method: "InsertScene", ID: s.ID, Entity: s})
}

func (b *Backend) UpdateScene(_ context.Context, s *types.Scene) error {
	return b.record(Call{Method: "UpdateScene", ID: s.ID, Entity: s})
}

func (b *Backend) DeleteScene(_ context.Context, _ *types.Novel, s *types.Scene) error {
	return b.record(Call{Method: "DeleteScene", ID: s.ID, Entity: s})
}

func (b *Backend) UpdateDocument(_ context.Context, _ *types.Novel, d *types.Document) error {
	return b.record(Call{Method: "UpdateDocument", ID: d.ID, Entity: d})
}

func (b *Backend) DeleteDocument(_ context.Context, _ *types.Novel, d *types.Document) error {
	return b.record(Call{Method: "DeleteDocument", ID: d.ID, Entity: d})
}

func (b *Backend) UpdateDiagram(_ context.Context, _ *types.Novel, d *types.Diagram) error {
	return b.record(Call{Method: "UpdateDiagram", ID: d.ID, Entity: d})
}

func (b *Backend) UpdateWorld(_ context.Context, n *types.Novel) error {
	return b.record(Call{Method: "UpdateWorld", ID: n.ID, Entity: n})
}
