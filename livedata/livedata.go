// Package livedata provides an observable value holder that replays its
// latest value to observers and scopes observers to lifecycle owners.
package livedata

import (
	"sync"

	"github.com/iotaledger/hive.go/ierrors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Ztiany/android-simple-bus/lifecycle"
	"github.com/Ztiany/android-simple-bus/state"
)

var (
	// ErrNilObserver is returned when subscribing a nil observer.
	ErrNilObserver = ierrors.New("observer must not be nil")
	// ErrNilOwner is returned when subscribing with a nil lifecycle owner.
	ErrNilOwner = ierrors.New("lifecycle owner must not be nil")
	// ErrObserverBoundElsewhere is returned when an observer is already
	// subscribed with another owner, or forever vs. scoped.
	ErrObserverBoundElsewhere = ierrors.New("observer already bound to a different lifecycle")
	// ErrObserverNotComparable is returned for observers that cannot be
	// matched by ==, such as func-typed implementations.
	ErrObserverNotComparable = ierrors.New("observer must be comparable")
)

// noValue is the version of a LiveData that was never written.
const noValue int64 = -1

// Mutable is the capability of a writable observable value holder.
type Mutable[T any] interface {
	// Value returns the current value and whether one was ever set.
	Value() (T, bool)
	// SetValue stores value and delivers it to active observers.
	SetValue(value T)
	// Observe subscribes observer while owner is at least Started and
	// removes it when owner is destroyed.
	Observe(owner lifecycle.Owner, observer Observer[T]) error
	// ObserveForever subscribes observer until RemoveObserver is called.
	ObserveForever(observer Observer[T]) error
	// RemoveObserver unsubscribes observer. Unknown or nil observers are ignored.
	RemoveObserver(observer Observer[T])
	// OnObserverRemoved registers fn to be called with every observer the
	// holder drops, whether removed explicitly or by its owner's destruction.
	OnObserverRemoved(fn func(Observer[T])) (unsubscribe func())
	// HasObservers reports whether any observer is subscribed.
	HasObservers() bool
	// HasActiveObservers reports whether any subscribed observer is active.
	HasActiveObservers() bool
}

type binding[T any] struct {
	observer    Observer[T]
	owner       lifecycle.Owner
	active      bool
	lastVersion int64
	detach      func()
	removed     atomic.Bool
}

// LiveData holds a value and delivers it to active observers. A newly
// active observer receives the latest value if it has not seen it yet.
type LiveData[T any] struct {
	mu        sync.Mutex
	value     T
	version   int64
	bindings  map[Observer[T]]*binding[T]
	removals  map[int]func(Observer[T])
	nextHook  int
	scheduler state.Scheduler
	log       *zap.Logger
}

var _ Mutable[int] = (*LiveData[int])(nil)

// New creates a LiveData without a value.
func New[T any](cfg Config) *LiveData[T] {
	return &LiveData[T]{
		version:   noValue,
		bindings:  make(map[Observer[T]]*binding[T]),
		removals:  make(map[int]func(Observer[T])),
		scheduler: cfg.scheduler(),
		log:       cfg.logger(),
	}
}

// NewWithValue creates a LiveData holding value.
func NewWithValue[T any](value T, cfg Config) *LiveData[T] {
	l := New[T](cfg)
	l.value = value
	l.version = 0
	return l
}

// Value returns the current value and whether one was ever set.
func (l *LiveData[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.version != noValue
}

// SetValue stores value and delivers it to every active observer.
func (l *LiveData[T]) SetValue(value T) {
	l.mu.Lock()
	l.version++
	l.value = value
	bindings := make([]*binding[T], 0, len(l.bindings))
	for _, b := range l.bindings {
		bindings = append(bindings, b)
	}
	l.mu.Unlock()

	for _, b := range bindings {
		l.considerNotify(b)
	}
}

// Observe subscribes observer for as long as owner lives. Owners that are
// already destroyed are ignored.
func (l *LiveData[T]) Observe(owner lifecycle.Owner, observer Observer[T]) error {
	if observer == nil {
		return ErrNilObserver
	}
	if owner == nil {
		return ErrNilOwner
	}
	if !Comparable(observer) {
		return ErrObserverNotComparable
	}
	if owner.CurrentState() == lifecycle.Destroyed {
		l.log.Debug("ignoring observer of destroyed owner")
		return nil
	}

	l.mu.Lock()
	if existing, ok := l.bindings[observer]; ok {
		l.mu.Unlock()
		if existing.owner != owner {
			return ierrors.Wrap(ErrObserverBoundElsewhere, "observe")
		}
		return nil
	}
	b := &binding[T]{observer: observer, owner: owner, lastVersion: noValue}
	l.bindings[observer] = b
	l.mu.Unlock()
	l.log.Debug("observer added", zap.Bool("forever", false))

	unsub := owner.AddObserver(func(s lifecycle.State) {
		l.ownerStateChanged(b, s)
	})

	l.mu.Lock()
	if b.removed.Load() {
		l.mu.Unlock()
		unsub()
		return nil
	}
	b.detach = unsub
	l.mu.Unlock()
	return nil
}

// ObserveForever subscribes observer until it is removed explicitly.
func (l *LiveData[T]) ObserveForever(observer Observer[T]) error {
	if observer == nil {
		return ErrNilObserver
	}
	if !Comparable(observer) {
		return ErrObserverNotComparable
	}

	l.mu.Lock()
	if existing, ok := l.bindings[observer]; ok {
		l.mu.Unlock()
		if existing.owner != nil {
			return ierrors.Wrap(ErrObserverBoundElsewhere, "observe forever")
		}
		return nil
	}
	b := &binding[T]{observer: observer, active: true, lastVersion: noValue}
	l.bindings[observer] = b
	l.mu.Unlock()
	l.log.Debug("observer added", zap.Bool("forever", true))

	l.considerNotify(b)
	return nil
}

// RemoveObserver unsubscribes observer.
func (l *LiveData[T]) RemoveObserver(observer Observer[T]) {
	if !Comparable(observer) {
		return
	}
	l.mu.Lock()
	b := l.bindings[observer]
	l.mu.Unlock()
	if b == nil {
		l.log.Debug("remove of unknown observer")
		return
	}
	l.removeBinding(b)
}

// RemoveObservers unsubscribes every observer tied to owner.
func (l *LiveData[T]) RemoveObservers(owner lifecycle.Owner) {
	if owner == nil {
		return
	}
	l.mu.Lock()
	var owned []*binding[T]
	for _, b := range l.bindings {
		if b.owner == owner {
			owned = append(owned, b)
		}
	}
	l.mu.Unlock()

	for _, b := range owned {
		l.removeBinding(b)
	}
}

// OnObserverRemoved registers fn for every observer the holder drops.
func (l *LiveData[T]) OnObserverRemoved(fn func(Observer[T])) func() {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	id := l.nextHook
	l.nextHook++
	l.removals[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.removals, id)
			l.mu.Unlock()
		})
	}
}

// HasObservers reports whether any observer is subscribed.
func (l *LiveData[T]) HasObservers() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bindings) > 0
}

// HasActiveObservers reports whether any subscribed observer is active.
func (l *LiveData[T]) HasActiveObservers() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.bindings {
		if b.active {
			return true
		}
	}
	return false
}

// Observers returns the currently subscribed observers in no particular order.
func (l *LiveData[T]) Observers() []Observer[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	observers := make([]Observer[T], 0, len(l.bindings))
	for observer := range l.bindings {
		observers = append(observers, observer)
	}
	return observers
}

func (l *LiveData[T]) ownerStateChanged(b *binding[T], s lifecycle.State) {
	if s == lifecycle.Destroyed {
		l.log.Debug("owner destroyed, dropping observer")
		l.removeBinding(b)
		return
	}

	active := s.IsAtLeast(lifecycle.Started)
	l.mu.Lock()
	if b.removed.Load() || b.active == active {
		l.mu.Unlock()
		return
	}
	b.active = active
	l.mu.Unlock()

	if active {
		l.considerNotify(b)
	}
}

// considerNotify hands the latest value to b if it is active and behind.
func (l *LiveData[T]) considerNotify(b *binding[T]) {
	l.mu.Lock()
	if b.removed.Load() || !b.active || b.lastVersion >= l.version {
		l.mu.Unlock()
		return
	}
	b.lastVersion = l.version
	value := l.value
	l.mu.Unlock()

	deliver := b.observer.OnChanged
	if binder, ok := b.observer.(DeliveryBinder[T]); ok {
		deliver = binder.BindDelivery()
	}
	l.scheduler.Schedule(func() {
		if b.removed.Load() {
			return
		}
		deliver(value)
	})
}

func (l *LiveData[T]) removeBinding(b *binding[T]) {
	l.mu.Lock()
	if l.bindings[b.observer] != b {
		l.mu.Unlock()
		return
	}
	delete(l.bindings, b.observer)
	b.removed.Store(true)
	b.active = false
	detach := b.detach
	b.detach = nil
	hooks := make([]func(Observer[T]), 0, len(l.removals))
	for _, fn := range l.removals {
		hooks = append(hooks, fn)
	}
	l.mu.Unlock()
	l.log.Debug("observer removed", zap.Bool("forever", b.owner == nil))

	if detach != nil {
		detach()
	}
	for _, fn := range hooks {
		fn(b.observer)
	}
}
