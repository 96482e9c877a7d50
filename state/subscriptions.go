package state

import "sync"

// Subscriptions tracks and clears multiple unsubscribe callbacks.
type Subscriptions struct {
	mu     sync.Mutex
	unsubs map[int]func()
	next   int
}

// NewSubscriptions creates an empty Subscriptions.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{}
}

// Add registers an unsubscribe callback. The returned func forgets it
// without calling it.
func (s *Subscriptions) Add(unsub func()) (forget func()) {
	if s == nil || unsub == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.unsubs == nil {
		s.unsubs = make(map[int]func())
	}
	id := s.next
	s.next++
	s.unsubs[id] = unsub
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.unsubs, id)
		s.mu.Unlock()
	}
}

// Len reports the number of tracked callbacks.
func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unsubs)
}

// Clear unsubscribes all tracked callbacks.
func (s *Subscriptions) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}
