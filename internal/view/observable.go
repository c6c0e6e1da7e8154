package view

import "sync"

// State is the {data, loading, error} triple a view exposes.
type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Observable holds a State and notifies subscribers after each change.
// Observers run on the updating goroutine, outside the lock.
type Observable[T any] struct {
	mu        sync.Mutex
	state     State[T]
	nextID    int
	observers map[int]func(State[T])
}

// Get returns the current state.
func (o *Observable[T]) Get() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe registers fn for future changes and returns its cancel func.
// fn may run while the owning view holds its own lock, so it must not call
// back into that view.
func (o *Observable[T]) Subscribe(fn func(State[T])) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.observers == nil {
		o.observers = make(map[int]func(State[T]))
	}
	id := o.nextID
	o.nextID++
	o.observers[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// update applies fn to the state under the lock, then notifies observers.
func (o *Observable[T]) update(fn func(*State[T])) {
	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state
	observers := make([]func(State[T]), 0, len(o.observers))
	for _, obs := range o.observers {
		observers = append(observers, obs)
	}
	o.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}

func (o *Observable[T]) set(s State[T]) {
	o.update(func(st *State[T]) { *st = s })
}
