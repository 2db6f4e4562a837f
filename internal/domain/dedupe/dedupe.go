// Package dedupe tracks submission idempotency. Station clients retry over
// flaky race-course links, so every pass submission carries a client
// reference; a reference seen before is acknowledged without re-recording.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen submission references for at-most-once recording.
type Deduper interface {
	// SeenAndRecord atomically checks whether ref was seen and records it
	// if not. Returns true when ref was already seen.
	SeenAndRecord(ctx context.Context, ref string) bool

	// Unrecord forgets a reference so the submission can be retried, used
	// when a recorded submission failed to enqueue.
	Unrecord(ctx context.Context, ref string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO list of
// insertion order for bounded eviction. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
	size    atomic.Int64
}

// NewInMemory creates a deduper with configuration options.
func NewInMemory(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, ref string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[ref]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldestLocked()
	}
	d.seen[ref] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, ref)
	}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, ref string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[ref]; !exists {
		return
	}
	delete(d.seen, ref)
	d.size.Add(-1)
	// The order list keeps a stale entry; evictOldestLocked skips refs that
	// are no longer in the map.
}

// evictOldestLocked drops the oldest still-present reference. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldestLocked() {
	for d.head < len(d.order) {
		ref := d.order[d.head]
		d.head++
		if _, exists := d.seen[ref]; exists {
			delete(d.seen, ref)
			d.size.Add(-1)
			break
		}
	}
	// Compact once the consumed prefix dominates the list.
	if d.head > 0 && d.head*2 >= len(d.order) {
		d.order = append(d.order[:0], d.order[d.head:]...)
		d.head = 0
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
