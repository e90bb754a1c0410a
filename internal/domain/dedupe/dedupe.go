// Package dedupe tracks event IDs a replica has already applied.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSize bounds the seen set when no size is configured.
const DefaultMaxSize = 10_000

// Deduper records applied event IDs so redelivered events are skipped.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed apply can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// fifoDeduper evicts the oldest ID once maxSize is reached. maxSize <= 0 disables eviction.
type fifoDeduper struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	seen    map[string]*list.Element
}

// NewInMemoryDeduper creates a deduper bounded to DefaultMaxSize unless WithMaxSize
// overrides it.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &fifoDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.order = list.New()
	d.seen = make(map[string]*list.Element)
	return d
}

func (d *fifoDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *fifoDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *fifoDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
