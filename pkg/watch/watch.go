// Package watch provides latest-value broadcast. Readers that fall behind
// skip straight to the newest value; nothing is queued.
package watch

import "sync"

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Value holds the current value of T.
type Value[T any] struct {
	mu      sync.Mutex
	v       T
	version uint64
	changed chan struct{}
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, version: 1, changed: make(chan struct{})}
}

// Set replaces the value and wakes every receiver.
func (w *Value[T]) Set(v T) {
	w.mu.Lock()
	w.v = v
	w.bump()
	w.mu.Unlock()
}

// Update replaces the value with fn(current) atomically.
func (w *Value[T]) Update(fn func(T) T) {
	w.mu.Lock()
	w.v = fn(w.v)
	w.bump()
	w.mu.Unlock()
}

func (w *Value[T]) bump() {
	w.version++
	close(w.changed)
	w.changed = make(chan struct{})
}

// Load returns the current value.
func (w *Value[T]) Load() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.v
}

// Subscribe returns a receiver that considers the current value unseen, so
// its first Changed fires immediately.
func (w *Value[T]) Subscribe() *Receiver[T] {
	return &Receiver[T]{w: w}
}

// Receiver tracks which version of a Value one reader has seen. A receiver
// belongs to a single goroutine.
type Receiver[T any] struct {
	w    *Value[T]
	seen uint64
}

// Changed returns a channel that is closed once there is a value the
// receiver has not loaded yet.
func (r *Receiver[T]) Changed() <-chan struct{} {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.version != r.seen {
		return closed
	}
	return r.w.changed
}

// Load returns the newest value and marks it seen.
func (r *Receiver[T]) Load() T {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.seen = r.w.version
	return r.w.v
}
