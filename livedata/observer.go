package livedata

import "reflect"

// Observer receives values from a LiveData. Observers are identified by
// ==, so implementations must be comparable; pointer types are the norm.
// Non-comparable observers are rejected with ErrObserverNotComparable.
type Observer[T any] interface {
	OnChanged(value T)
}

// DeliveryBinder is implemented by observers that need to capture state at
// the moment a delivery is scheduled rather than when it runs. The returned
// func is called in place of OnChanged for that delivery.
type DeliveryBinder[T any] interface {
	Observer[T]
	BindDelivery() func(T)
}

// Comparable reports whether observer is non-nil and can be matched by ==.
func Comparable[T any](observer Observer[T]) bool {
	if observer == nil {
		return false
	}
	return reflect.ValueOf(observer).Comparable()
}

// FuncObserver adapts a function into an Observer with pointer identity.
type FuncObserver[T any] struct {
	fn func(T)
}

// NewObserver wraps fn. Each call returns a distinct observer.
func NewObserver[T any](fn func(T)) *FuncObserver[T] {
	return &FuncObserver[T]{fn: fn}
}

// OnChanged calls the wrapped function.
func (o *FuncObserver[T]) OnChanged(value T) {
	if o == nil || o.fn == nil {
		return
	}
	o.fn(value)
}
