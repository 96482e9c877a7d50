// Package state provides the reactive primitives the observable holders build on.
package state

import "sync"

// EqualFunc compares two values for equality.
type EqualFunc[T any] func(a, b T) bool

// EqualComparable compares comparable values with ==.
func EqualComparable[T comparable](a, b T) bool {
	return a == b
}

type subscriber[T any] struct {
	fn        func(T)
	scheduler Scheduler
}

// Signal holds a value and notifies subscribers with every change.
type Signal[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]subscriber[T]
	next  int
	equal EqualFunc[T]
}

// NewSignal creates a new signal with an initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// SetEqualFunc configures the equality check used to suppress redundant updates.
func (s *Signal[T]) SetEqualFunc(fn EqualFunc[T]) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.equal = fn
	s.mu.Unlock()
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	if s == nil {
		var zero T
		return zero
	}
	s.mu.Lock()
	value := s.value
	s.mu.Unlock()
	return value
}

// Set updates the value and notifies subscribers if it changed.
func (s *Signal[T]) Set(value T) bool {
	changed, _ := s.Apply(func(T) (T, error) {
		return value, nil
	})
	return changed
}

// Apply computes the next value from the current one while holding the lock.
// A non-nil error from fn leaves the value untouched and is returned as is.
// Subscribers are notified after the lock is released.
func (s *Signal[T]) Apply(fn func(current T) (T, error)) (bool, error) {
	if s == nil || fn == nil {
		return false, nil
	}
	s.mu.Lock()
	next, err := fn(s.value)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return false, nil
	}
	s.value = next
	subs := s.copySubscribersLocked()
	s.mu.Unlock()

	notify(subs, next)
	return true, nil
}

// Subscribe registers a listener for change notifications.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	return s.SubscribeWithScheduler(nil, fn)
}

// SubscribeWithScheduler registers a listener using a scheduler.
// If scheduler is nil, callbacks run synchronously.
func (s *Signal[T]) SubscribeWithScheduler(scheduler Scheduler, fn func(T)) func() {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]subscriber[T])
	}
	id := s.next
	s.next++
	s.subs[id] = subscriber[T]{fn: fn, scheduler: scheduler}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Signal[T]) copySubscribersLocked() []subscriber[T] {
	if len(s.subs) == 0 {
		return nil
	}
	subs := make([]subscriber[T], 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs
}

func notify[T any](subs []subscriber[T], value T) {
	for _, sub := range subs {
		if sub.fn == nil {
			continue
		}
		if sub.scheduler == nil {
			sub.fn(value)
			continue
		}
		fn := sub.fn
		sub.scheduler.Schedule(func() { fn(value) })
	}
}
