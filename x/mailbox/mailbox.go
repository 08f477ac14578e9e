// Package mailbox provides a single-slot, last-write-wins hand-off between
// any number of producers and one consumer.
package mailbox

import (
	"context"
	"sync"
)

// Box holds at most one pending value. Put never blocks; a value that was
// not yet taken is replaced.
type Box[T any] struct {
	mu     sync.Mutex
	val    T
	full   bool
	notify chan struct{}
	empty  chan struct{} // closed while the slot is empty
}

func New[T any]() *Box[T] {
	e := make(chan struct{})
	close(e)
	return &Box[T]{
		notify: make(chan struct{}, 1),
		empty:  e,
	}
}

// Put stores v, overwriting any pending value, and wakes the consumer.
// It reports whether a pending value was replaced.
func (b *Box[T]) Put(v T) (replaced bool) {
	b.mu.Lock()
	replaced = b.full
	b.val = v
	if !b.full {
		b.full = true
		b.empty = make(chan struct{})
	}
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return replaced
}

// TryTake removes and returns the pending value, if any.
func (b *Box[T]) TryTake() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero T
	if !b.full {
		return zero, false
	}
	v := b.val
	b.val = zero
	b.full = false
	close(b.empty)
	return v, true
}

// Take blocks until a value is available or ctx ends.
func (b *Box[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := b.TryTake(); ok {
			return v, nil
		}
		select {
		case <-b.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Notify fires at least once after every Put. A receive does not imply a
// value is still pending; follow it with TryTake.
func (b *Box[T]) Notify() <-chan struct{} { return b.notify }

// Pending reports whether a value is waiting.
func (b *Box[T]) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.full
}

// Drained blocks until the slot is empty or ctx ends.
func (b *Box[T]) Drained(ctx context.Context) error {
	b.mu.Lock()
	e := b.empty
	b.mu.Unlock()
	select {
	case <-e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
