package persistence

import "sync"

// opLog is the ordered list of operations waiting to be flushed. Enqueueing
// and draining happen on different goroutines, so every access holds mu.
type opLog struct {
	mu  sync.Mutex
	ops []Operation
}

func (l *opLog) append(op Operation) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ops = append(l.ops, op)
	return len(l.ops)
}

// drain removes and returns every queued operation.
func (l *opLog) drain() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops := l.ops
	l.ops = nil
	return ops
}

// requeue puts ops back at the head of the log, ahead of anything enqueued
// since they were drained.
func (l *opLog) requeue(ops []Operation) {
	if len(ops) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]Operation, 0, len(ops)+len(l.ops))
	merged = append(merged, ops...)
	l.ops = append(merged, l.ops...)
}

func (l *opLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.ops)
}
