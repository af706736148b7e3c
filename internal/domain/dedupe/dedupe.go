// Package dedupe remembers score submission ids so a retried submission is
// applied once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records submission ids for at-most-once processing.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not. The check and the write happen under one lock.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the submission can be retried, for example
	// after the queue rejected it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// submissionCache keeps the most recent ids. When full, the oldest id is
// evicted first. A non-positive capacity disables eviction.
type submissionCache struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	order    *list.List // front is newest
	capacity int
	size     atomic.Int64
}

// NewInMemoryDeduper creates a submission cache holding up to 50000 ids by default.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &submissionCache{capacity: 50000}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *submissionCache) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true
	}
	if d.capacity > 0 && d.order.Len() >= d.capacity {
		if oldest := d.order.Back(); oldest != nil {
			delete(d.index, oldest.Value.(string))
			d.order.Remove(oldest)
		}
	}
	d.index[id] = d.order.PushFront(id)
	d.size.Store(int64(d.order.Len()))
	return false
}

func (d *submissionCache) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[id]; ok {
		d.order.Remove(el)
		delete(d.index, id)
		d.size.Store(int64(d.order.Len()))
	}
}

// Size returns the number of remembered ids.
func (d *submissionCache) Size() int64 {
	return d.size.Load()
}
