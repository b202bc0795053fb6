// Package observer implements subscription lists with stable handles.
package observer

import "sync"

// Registry fans events out to subscribers in subscription order. The zero
// value is ready to use.
type Registry[E any] struct {
	mu      sync.Mutex
	next    uint64
	entries []entry[E]
}

type entry[E any] struct {
	id uint64
	fn func(E)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	cancel func()
}

// Unsubscribe removes the listener. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers fn and returns a handle for removing it again.
func (r *Registry[E]) Subscribe(fn func(E)) Subscription {
	if fn == nil {
		return Subscription{}
	}
	r.mu.Lock()
	r.next++
	id := r.next
	r.entries = append(r.entries, entry[E]{id: id, fn: fn})
	r.mu.Unlock()
	return Subscription{cancel: func() { r.remove(id) }}
}

// Emit delivers event to a snapshot of the current subscribers, so a listener
// may unsubscribe itself (or others) while being notified.
func (r *Registry[E]) Emit(event E) {
	r.mu.Lock()
	snapshot := make([]entry[E], len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()
	for _, e := range snapshot {
		e.fn(event)
	}
}

// Len reports the number of live subscriptions.
func (r *Registry[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[E]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}
