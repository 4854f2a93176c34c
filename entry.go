package querycache

import (
	"context"
	"sync"
	"time"
)

// closedSettled is the shared pre-closed channel handed out when an entry is
// already settled, so callers never allocate or block on that path.
var closedSettled = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Entry is one cached result slot. It is created lazily on first access to
// its key and mutated in place by the store's actions. Data and error are not
// mutually exclusive: an error received after data leaves the stale data in
// place alongside the error.
type Entry[D, E any] struct {
	mu        sync.RWMutex
	loading   bool
	hasData   bool
	data      D
	hasErr    bool
	err       E
	createdAt time.Time
	waiters   []chan struct{}
}

func newEntry[D, E any](now time.Time) *Entry[D, E] {
	return &Entry[D, E]{createdAt: now}
}

// Loading reports whether a fetch is in flight for this entry.
func (e *Entry[D, E]) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Data returns the last successfully received payload, if any.
func (e *Entry[D, E]) Data() (D, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data, e.hasData
}

// Err returns the last received error payload, if any.
func (e *Entry[D, E]) Err() (E, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err, e.hasErr
}

// HasData reports whether the entry holds a payload.
func (e *Entry[D, E]) HasData() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasData
}

// HasError reports whether the entry holds an error payload.
func (e *Entry[D, E]) HasError() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasErr
}

// Time returns the entry's creation time. It is stamped once and never
// refreshed, including by SetData; staleness is measured from it.
func (e *Entry[D, E]) Time() time.Time {
	return e.createdAt
}

// Settled returns a channel that is closed once the entry is not loading. If
// the entry is already settled the returned channel is already closed.
// Otherwise the channel closes on the next loading->false transition; every
// concurrent caller's channel closes on that same transition.
func (e *Entry[D, E]) Settled() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loading {
		return closedSettled
	}
	ch := make(chan struct{})
	e.waiters = append(e.waiters, ch)
	return ch
}

// AwaitSettled blocks until the entry is not loading or ctx is done.
func (e *Entry[D, E]) AwaitSettled(ctx context.Context) error {
	select {
	case <-e.Settled():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mutators below are invoked only by store actions. Each returns the waiter
// channels to close once the action is complete; the store closes them after
// releasing its locks so an action's writes are observed together.

func (e *Entry[D, E]) setLoading(loading bool) []chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	settled := e.loading && !loading
	e.loading = loading
	if settled {
		return e.takeWaiters()
	}
	return nil
}

func (e *Entry[D, E]) setData(data D) []chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	settled := e.loading
	e.loading = false
	e.hasData = true
	e.data = data
	e.hasErr = false
	var zero E
	e.err = zero
	if settled {
		return e.takeWaiters()
	}
	return nil
}

func (e *Entry[D, E]) setError(fetchErr E) []chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	settled := e.loading
	e.loading = false
	e.hasErr = true
	e.err = fetchErr
	// data/hasData deliberately untouched: stale data stays readable next to
	// the error.
	if settled {
		return e.takeWaiters()
	}
	return nil
}

func (e *Entry[D, E]) takeWaiters() []chan struct{} {
	w := e.waiters
	e.waiters = nil
	return w
}
