package state

// Readable exposes read-only reactive state.
type Readable[T any] interface {
	Get() T
	Subscribe(fn func(T)) func()
	SubscribeWithScheduler(scheduler Scheduler, fn func(T)) func()
}

// Writable exposes read/write reactive state.
type Writable[T any] interface {
	Readable[T]
	Set(value T) bool
	Apply(fn func(current T) (T, error)) (bool, error)
}

var _ Writable[int] = (*Signal[int])(nil)
