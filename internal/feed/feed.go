// Package feed fans out snapshots to callbacks registered per owner.
package feed

import "sync"

type Feed[T any] struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(T)
}

func New[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[string]map[int]func(T))}
}

// Subscribe registers fn for owner. The returned cancel func is idempotent.
func (f *Feed[T]) Subscribe(owner string, fn func(T)) (cancel func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	if f.subs[owner] == nil {
		f.subs[owner] = make(map[int]func(T))
	}
	f.subs[owner][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[owner], id)
			if len(f.subs[owner]) == 0 {
				delete(f.subs, owner)
			}
			f.mu.Unlock()
		})
	}
}

// Publish calls every callback registered for owner. Callbacks run on the
// caller's goroutine, outside the feed's lock, so they may subscribe or
// cancel.
func (f *Feed[T]) Publish(owner string, v T) {
	f.mu.Lock()
	fns := make([]func(T), 0, len(f.subs[owner]))
	for _, fn := range f.subs[owner] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Count returns the number of callbacks registered for owner.
func (f *Feed[T]) Count(owner string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[owner])
}
