// Package single provides a LiveData that hands each value to an observer
// at most once, so values set before an observer subscribed are never
// replayed to it.
package single

import (
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Ztiany/android-simple-bus/lifecycle"
	"github.com/Ztiany/android-simple-bus/livedata"
	"github.com/Ztiany/android-simple-bus/state"
)

// Config configures a single-delivery LiveData.
type Config struct {
	// Scheduler runs deliveries of the default host and PostValue writes.
	// Nil means state.DirectScheduler.
	Scheduler state.Scheduler
	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// LiveData layers single delivery on top of a host holder. Every write bumps
// a version counter; each observer is wrapped with the version current at
// its first subscription and only receives values written after it.
//
// Observers are matched by ==; non-comparable ones are rejected with
// livedata.ErrObserverNotComparable (see livedata.NewObserver for funcs).
type LiveData[T any] struct {
	host      livedata.Mutable[T]
	version   atomic.Int64
	mu        sync.Mutex
	wrappers  map[livedata.Observer[T]]*wrapper[T]
	scheduler state.Scheduler
	log       *zap.Logger
}

// New creates an empty LiveData backed by a livedata.LiveData.
func New[T any](cfg Config) *LiveData[T] {
	return Wrap[T](livedata.New[T](hostConfig(cfg)), cfg)
}

// NewWithValue creates a LiveData holding value. The initial value does not
// count as a write, so observers subscribing now are not handed it.
func NewWithValue[T any](value T, cfg Config) *LiveData[T] {
	return Wrap[T](livedata.NewWithValue(value, hostConfig(cfg)), cfg)
}

// Wrap layers single delivery on top of host. host must not be written to
// directly afterwards, or its writes will be treated as already seen.
func Wrap[T any](host livedata.Mutable[T], cfg Config) *LiveData[T] {
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = state.DirectScheduler
	}
	log := zap.NewNop()
	if cfg.Logger != nil {
		log = cfg.Logger.Named("single")
	}
	s := &LiveData[T]{
		host:      host,
		wrappers:  make(map[livedata.Observer[T]]*wrapper[T]),
		scheduler: scheduler,
		log:       log,
	}
	host.OnObserverRemoved(s.forget)
	return s
}

func hostConfig(cfg Config) livedata.Config {
	return livedata.Config{Scheduler: cfg.Scheduler, Logger: cfg.Logger}
}

// Value returns the current value and whether one was ever set.
func (s *LiveData[T]) Value() (T, bool) {
	return s.host.Value()
}

// Version returns the number of writes so far.
func (s *LiveData[T]) Version() int64 {
	return s.version.Load()
}

// SetValue bumps the version and hands value to the host for delivery.
func (s *LiveData[T]) SetValue(value T) {
	s.version.Inc()
	s.host.SetValue(value)
}

// PostValue schedules SetValue(value) on the configured scheduler.
func (s *LiveData[T]) PostValue(value T) {
	s.scheduler.Schedule(func() {
		s.SetValue(value)
	})
}

// Observe subscribes observer for the lifetime of owner.
func (s *LiveData[T]) Observe(owner lifecycle.Owner, observer livedata.Observer[T]) error {
	if observer == nil {
		return livedata.ErrNilObserver
	}
	if owner == nil {
		return livedata.ErrNilOwner
	}
	if !livedata.Comparable(observer) {
		return livedata.ErrObserverNotComparable
	}
	if owner.CurrentState() == lifecycle.Destroyed {
		return nil
	}
	w, created := s.wrapperFor(observer)
	if err := s.host.Observe(owner, w); err != nil {
		if created {
			s.drop(w)
		}
		return err
	}
	return nil
}

// ObserveForever subscribes observer until RemoveObserver is called.
func (s *LiveData[T]) ObserveForever(observer livedata.Observer[T]) error {
	if observer == nil {
		return livedata.ErrNilObserver
	}
	if !livedata.Comparable(observer) {
		return livedata.ErrObserverNotComparable
	}
	w, created := s.wrapperFor(observer)
	if err := s.host.ObserveForever(w); err != nil {
		if created {
			s.drop(w)
		}
		return err
	}
	return nil
}

// RemoveObserver unsubscribes observer, which may be either the observer
// passed to Observe or the wrapper the host holds for it. Unknown and
// non-comparable observers are ignored.
func (s *LiveData[T]) RemoveObserver(observer livedata.Observer[T]) {
	s.mu.Lock()
	w := s.findLocked(observer)
	s.mu.Unlock()

	var target livedata.Observer[T]
	if w != nil {
		target = w
	}
	s.host.RemoveObserver(target)
	if w != nil {
		s.drop(w)
	}
}

// HasObservers reports whether any observer is subscribed.
func (s *LiveData[T]) HasObservers() bool {
	return s.host.HasObservers()
}

// HasActiveObservers reports whether any subscribed observer is active.
func (s *LiveData[T]) HasActiveObservers() bool {
	return s.host.HasActiveObservers()
}

// wrapperFor returns the wrapper of observer, creating it with the current
// version if there is none.
func (s *LiveData[T]) wrapperFor(observer livedata.Observer[T]) (*wrapper[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.findLocked(observer); w != nil {
		s.log.Debug("reusing wrapper", zap.Stringer("wrapper", w.id), zap.Int64("recorded", w.version))
		return w, false
	}
	w := &wrapper[T]{
		id:      ulid.Make(),
		version: s.version.Load(),
		origin:  observer,
		holder:  s,
	}
	s.wrappers[observer] = w
	s.log.Debug("created wrapper", zap.Stringer("wrapper", w.id), zap.Int64("recorded", w.version))
	return w, true
}

func (s *LiveData[T]) findLocked(observer livedata.Observer[T]) *wrapper[T] {
	if !livedata.Comparable(observer) {
		return nil
	}
	if w, ok := s.wrappers[observer]; ok {
		s.log.Debug("found wrapper by origin", zap.Stringer("wrapper", w.id))
		return w
	}
	if w, ok := observer.(*wrapper[T]); ok && w != nil && s.wrappers[w.origin] == w {
		s.log.Debug("found wrapper by identity", zap.Stringer("wrapper", w.id))
		return w
	}
	return nil
}

// forget drops the record of an observer the host let go of.
func (s *LiveData[T]) forget(observer livedata.Observer[T]) {
	s.mu.Lock()
	w := s.findLocked(observer)
	s.mu.Unlock()
	if w != nil {
		s.drop(w)
	}
}

func (s *LiveData[T]) drop(w *wrapper[T]) {
	s.mu.Lock()
	if s.wrappers[w.origin] == w {
		delete(s.wrappers, w.origin)
	}
	s.mu.Unlock()
}
