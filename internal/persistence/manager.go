package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// ErrShutdownFlushExhausted is returned by FlushOrFail when an in-flight
// flush did not finish within the retry budget.
var ErrShutdownFlushExhausted = errors.New("shutdown flush exhausted")

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(mt *Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithMode selects types.ModeDeferred, types.ModeImmediate or
// types.ModeDisabled. Defaults to deferred.
func WithMode(mode string) Option {
	return func(m *Manager) { m.mode = mode }
}

// WithFlushInterval sets the periodic flush interval used by Start. A zero
// interval disables the timer.
func WithFlushInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

// WithRetry sets how many times FlushOrFail retries while a flush is in
// flight and how long it sleeps between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) {
		m.attempts = attempts
		m.delay = delay
	}
}

// WithErrorHandler registers a callback invoked with every flush failure,
// including failures of background flushes.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Manager) { m.onError = fn }
}

// WithContext sets the context passed to backend calls.
func WithContext(ctx context.Context) Option {
	return func(m *Manager) { m.ctx = ctx }
}

// Manager records mutations of the novel graph and writes them to a backend.
//
// Mutation methods are meant to be called from a single goroutine, the one
// that owns the graph. Flushes may run on a background goroutine; they only
// ever see the snapshots captured when each operation was recorded.
type Manager struct {
	backend  types.Backend
	logger   *slog.Logger
	metrics  *Metrics
	mode     string
	interval time.Duration
	attempts int
	delay    time.Duration
	onError  func(error)
	ctx      context.Context
	sleep    func(time.Duration)

	log      opLog
	inFlight atomic.Bool
	worker   sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer
	closed  bool
	ticks   sync.WaitGroup

	errMu   sync.Mutex
	lastErr error
}

// NewManager creates a Manager writing to backend.
func NewManager(backend types.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		logger:   slog.Default(),
		mode:     types.ModeDeferred,
		interval: types.DefaultFlushInterval,
		attempts: types.DefaultShutdownAttempts,
		delay:    types.DefaultShutdownDelay,
		ctx:      context.Background(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the persistence mode.
func (m *Manager) Mode() string { return m.mode }

// Pending returns the number of operations waiting in the log.
func (m *Manager) Pending() int { return m.log.len() }

// LastError returns the error of the most recent failed flush, or nil if
// the last flush succeeded.
func (m *Manager) LastError() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.lastErr
}

// Wait blocks until the in-flight background flush, if any, has finished.
func (m *Manager) Wait() { m.worker.Wait() }

// InsertNovel records a new novel together with the members it already holds.
func (m *Manager) InsertNovel(n *types.Novel) error {
	if n == nil {
		return types.ErrNilEntity
	}
	return m.record(insertNovelOp{novel: n.Clone()})
}

// UpdateNovel records a change to the novel record, which holds the member
// lists and the document tree.
func (m *Manager) UpdateNovel(n *types.Novel) error {
	if n == nil {
		return types.ErrNilEntity
	}
	return m.record(updateNovelOp{novel: n.Clone()})
}

// DeleteNovel records the removal of the novel and every member it lists.
func (m *Manager) DeleteNovel(n *types.Novel) error {
	if n == nil {
		return types.ErrNilEntity
	}
	return m.record(deleteNovelOp{novel: n.Clone()})
}

// UpdateProjectNovel records a change to the novel's title or subtitle as
// listed in the project.
func (m *Manager) UpdateProjectNovel(d types.NovelDescriptor) error {
	return m.record(updateProjectNovelOp{descriptor: d})
}

// InsertCharacter records a character added to n. The backend rewrites the
// novel record as well.
func (m *Manager) InsertCharacter(n *types.Novel, c *types.Character) error {
	if n == nil || c == nil {
		return types.ErrNilEntity
	}
	return m.record(insertCharacterOp{novel: n.Clone(), character: c.Clone()})
}

// UpdateCharacter records a character change. avatarChanged requests that
// the stored avatar image be replaced as well.
func (m *Manager) UpdateCharacter(c *types.Character, avatarChanged bool) error {
	if c == nil {
		return types.ErrNilEntity
	}
	return m.record(updateCharacterOp{character: c.Clone(), avatarChanged: avatarChanged})
}

// DeleteCharacter records the removal of c from n. The caller must already
// have dropped every reference to c.
func (m *Manager) DeleteCharacter(n *types.Novel, c *types.Character) error {
	if n == nil || c == nil {
		return types.ErrNilEntity
	}
	return m.record(deleteCharacterOp{novel: n.Clone(), character: c.Clone()})
}

// InsertScene records a scene added to n.
func (m *Manager) InsertScene(n *types.Novel, s *types.Scene) error {
	if n == nil || s == nil {
		return types.ErrNilEntity
	}
	return m.record(insertSceneOp{novel: n.Clone(), scene: s.Clone()})
}

// UpdateScene records a scene change. Repeated updates in one flush cycle
// are written once, with the latest state.
func (m *Manager) UpdateScene(s *types.Scene) error {
	if s == nil {
		return types.ErrNilEntity
	}
	return m.record(updateSceneOp{scene: s.Clone()})
}

// DeleteScene records the removal of s from n.
func (m *Manager) DeleteScene(n *types.Novel, s *types.Scene) error {
	if n == nil || s == nil {
		return types.ErrNilEntity
	}
	return m.record(deleteSceneOp{novel: n.Clone(), scene: s.Clone()})
}

// UpdateDocument records new content for d. Only the header of n is kept;
// the document tree itself is saved by UpdateNovel.
func (m *Manager) UpdateDocument(n *types.Novel, d *types.Document) error {
	if n == nil || d == nil {
		return types.ErrNilEntity
	}
	return m.record(updateDocumentOp{novel: header(n), doc: d.Clone()})
}

// DeleteDocument records the removal of d's content.
func (m *Manager) DeleteDocument(n *types.Novel, d *types.Document) error {
	if n == nil || d == nil {
		return types.ErrNilEntity
	}
	return m.record(deleteDocumentOp{novel: header(n), doc: d.Clone()})
}

// UpdateDiagram records a diagram change. Only the header of n is kept.
func (m *Manager) UpdateDiagram(n *types.Novel, d *types.Diagram) error {
	if n == nil || d == nil {
		return types.ErrNilEntity
	}
	return m.record(updateDiagramOp{novel: header(n), diagram: d.Clone()})
}

// UpdateWorld records a change to the world-building tree of n. The
// operation holds a copy of the world and the novel header, nothing else.
func (m *Manager) UpdateWorld(n *types.Novel) error {
	if n == nil {
		return types.ErrNilEntity
	}
	snap := header(n)
	snap.World = n.World.Clone()
	return m.record(updateWorldOp{novel: snap})
}

func (m *Manager) record(op Operation) error {
	switch m.mode {
	case types.ModeDisabled:
		return nil
	case types.ModeImmediate:
		m.log.append(op)
		return m.persistImmediate()
	default:
		m.metrics.setPending(m.log.append(op))
		return nil
	}
}

// persistImmediate writes the whole log, one backend call per operation
// with no coalescing, and clears it. It is the path used in immediate mode
// and does not go through the flush guard.
func (m *Manager) persistImmediate() error {
	ops := m.log.drain()
	for i, op := range ops {
		if err := m.call(op); err != nil {
			m.log.requeue(ops[i:])
			return fmt.Errorf("persist %s %s: %w", Label(op), op.EntityID(), err)
		}
	}
	return nil
}

// Flush drains the log and writes it to the backend. It returns false
// without doing anything if another flush is still in flight; otherwise it
// returns true, including when the log was empty.
//
// With wait set the writes happen on the calling goroutine and their error
// is returned. Otherwise they run on a background goroutine and failures are
// reported through LastError and the error handler.
func (m *Manager) Flush(wait bool) (bool, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.metrics.incRejected()
		return false, nil
	}

	ops := m.log.drain()
	m.metrics.setPending(m.log.len())
	if len(ops) == 0 {
		m.inFlight.Store(false)
		return true, nil
	}

	if wait {
		defer m.inFlight.Store(false)
		return true, m.flushCycle(ops, "sync")
	}

	m.worker.Add(1)
	go func() {
		defer m.worker.Done()
		defer m.inFlight.Store(false)
		_ = m.flushCycle(ops, "async")
	}()
	return true, nil
}

func (m *Manager) flushCycle(ops []Operation, mode string) error {
	start := time.Now()
	plan, skipped := coalesce(ops)
	m.metrics.addCoalesced(skipped)

	for i, op := range plan {
		if err := m.call(op); err != nil {
			m.log.requeue(plan[i:])
			m.metrics.setPending(m.log.len())
			err = fmt.Errorf("flush %s %s: %w", Label(op), op.EntityID(), err)
			m.metrics.observeFlush(mode, err, time.Since(start))
			m.fail(err, len(plan)-i)
			return err
		}
	}

	m.metrics.observeFlush(mode, nil, time.Since(start))
	m.setLastError(nil)
	m.logger.Debug("flush complete",
		"mode", mode,
		"operations", len(ops),
		"writes", len(plan),
		"coalesced", skipped,
		"elapsed", time.Since(start))
	return nil
}

func (m *Manager) call(op Operation) error {
	err := op.persist(m.ctx, m.backend)
	m.metrics.observeCall(op, err)
	return err
}

func (m *Manager) fail(err error, requeued int) {
	m.setLastError(err)
	m.logger.Error("flush failed", "error", err, "requeued", requeued)
	if m.onError != nil {
		m.onError(err)
	}
}

func (m *Manager) setLastError(err error) {
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
}

// FlushOrFail flushes the log synchronously. While a background flush is in
// flight it sleeps and retries; once the retry budget is spent it returns an
// error wrapping ErrShutdownFlushExhausted. Callers must not exit quietly
// when it fails.
func (m *Manager) FlushOrFail() error {
	for attempt := 0; ; attempt++ {
		ok, err := m.Flush(true)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if attempt >= m.attempts {
			return fmt.Errorf("%w: flush still in flight after %d retries, %d operations pending",
				ErrShutdownFlushExhausted, m.attempts, m.Pending())
		}
		m.logger.Debug("flush in flight, retrying", "attempt", attempt+1, "delay", m.delay)
		m.sleep(m.delay)
	}
}

// Start arms the periodic background flush. It does nothing unless the
// mode is deferred and the interval is positive.
func (m *Manager) Start() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.mode != types.ModeDeferred || m.interval <= 0 || m.timer != nil || m.closed {
		return
	}
	m.timer = time.AfterFunc(m.interval, m.tick)
}

// tick runs one periodic flush. Ticks are counted under timerMu so that
// none can start once Close has stopped the timer.
func (m *Manager) tick() {
	m.timerMu.Lock()
	if m.closed {
		m.timerMu.Unlock()
		return
	}
	m.ticks.Add(1)
	m.timerMu.Unlock()
	defer m.ticks.Done()

	if ok, _ := m.Flush(false); !ok {
		m.logger.Debug("periodic flush skipped, previous flush still running")
	}

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil && !m.closed {
		m.timer.Reset(m.interval)
	}
}

func (m *Manager) stopTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Close stops the periodic flush, waits for a running tick and its
// background flush to end and writes whatever is left in the log.
func (m *Manager) Close() error {
	m.stopTimer()
	m.ticks.Wait()
	m.Wait()
	if m.mode == types.ModeDisabled {
		return nil
	}
	return m.FlushOrFail()
}
