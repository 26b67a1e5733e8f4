package beanserver

import (
	"sync"

	"github.com/beanwire/beanwire/observability"
)

// cancellationKey is the tuple spec.md §3 indexes the cancellation
// table by: (invocationId, sessionAffinity), both required non-empty.
type cancellationKey struct {
	invocationID string
	affinity     string
}

// cancellationTable is the process-wide map from invocation identifier
// to cancel handle (spec.md §3, invariant I2: every entry is removed
// when its invocation reaches a terminal state).
type cancellationTable struct {
	mu      sync.Mutex
	entries map[cancellationKey]CancelHandle
}

func newCancellationTable() *cancellationTable {
	return &cancellationTable{entries: make(map[cancellationKey]CancelHandle)}
}

func (t *cancellationTable) store(key cancellationKey, handle CancelHandle) {
	t.mu.Lock()
	t.entries[key] = handle
	t.mu.Unlock()
	observability.SetCancellationTableSize(t.size())
}

// remove deletes key unconditionally — used both on normal terminal
// completion (invariant I2) and to guard against a stale key lingering
// when the dispatcher returned no cancel handle (spec.md §4.4 step 11:
// "otherwise ensure no stale key exists").
func (t *cancellationTable) remove(key cancellationKey) {
	t.mu.Lock()
	delete(t.entries, key)
	size := len(t.entries)
	t.mu.Unlock()
	observability.SetCancellationTableSize(size)
}

// takeAndCancel removes key and, if present, invokes its handle's
// Cancel. Returns whether an entry was found (spec.md §4.4 "Cancel
// handler": lookup, remove, invoke if present; double-cancel is a
// no-op because a second lookup after removal finds nothing).
func (t *cancellationTable) takeAndCancel(key cancellationKey, cancelRunning bool) bool {
	t.mu.Lock()
	handle, ok := t.entries[key]
	delete(t.entries, key)
	size := len(t.entries)
	t.mu.Unlock()
	observability.SetCancellationTableSize(size)

	if ok && handle != nil {
		handle.Cancel(cancelRunning)
	}
	return ok
}

func (t *cancellationTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
