package state

import (
	"sync"

	"go.uber.org/atomic"
)

// Scheduler dispatches callbacks, usually onto the thread that owns the UI.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function into a Scheduler.
type SchedulerFunc func(func())

// Schedule dispatches fn using the wrapped function.
func (f SchedulerFunc) Schedule(fn func()) {
	if f == nil || fn == nil {
		return
	}
	f(fn)
}

// DirectScheduler runs callbacks immediately in the caller goroutine.
var DirectScheduler Scheduler = SchedulerFunc(func(fn func()) {
	if fn != nil {
		fn()
	}
})

// Queue batches callbacks for explicit flushing.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule enqueues a callback for later flushing.
func (q *Queue) Schedule(fn func()) {
	if q == nil || fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len reports the number of queued callbacks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush executes queued callbacks and returns the count.
// Callbacks scheduled while flushing run on the next flush.
func (q *Queue) Flush() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// QueueScheduler enqueues callbacks and asks the owning loop to flush them.
// The wake callback fires once per batch; Flush re-arms it.
type QueueScheduler struct {
	queue   *Queue
	wake    func() bool
	pending atomic.Bool
}

// NewQueueScheduler wires a queue to a wake-up function.
// wake reports whether the loop accepted the request.
func NewQueueScheduler(queue *Queue, wake func() bool) *QueueScheduler {
	if queue == nil {
		queue = NewQueue()
	}
	return &QueueScheduler{
		queue: queue,
		wake:  wake,
	}
}

// Schedule enqueues the callback and wakes the loop if no flush is pending.
func (s *QueueScheduler) Schedule(fn func()) {
	if s == nil || s.queue == nil || fn == nil {
		return
	}
	s.queue.Schedule(fn)
	if s.wake == nil {
		return
	}
	if s.pending.CompareAndSwap(false, true) {
		if !s.wake() {
			s.pending.Store(false)
		}
	}
}

// Flush runs the queued callbacks on the calling goroutine.
func (s *QueueScheduler) Flush() int {
	if s == nil {
		return 0
	}
	s.pending.Store(false)
	return s.queue.Flush()
}
