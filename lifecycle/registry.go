package lifecycle

import (
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/Ztiany/android-simple-bus/state"
)

var (
	// ErrDestroyed is returned when moving a destroyed registry to another state.
	ErrDestroyed = ierrors.New("lifecycle already destroyed")
	// ErrUnknownState is returned for states outside the declared range.
	ErrUnknownState = ierrors.New("unknown lifecycle state")
)

// Owner is a scope whose state changes drive scoped subscriptions.
type Owner interface {
	// CurrentState returns the owner's state at the time of the call.
	CurrentState() State
	// AddObserver calls fn with the current state right away and then with
	// every later state. The returned func stops further calls.
	AddObserver(fn func(State)) (unsubscribe func())
}

// Registry is an Owner driven explicitly through MoveTo.
type Registry struct {
	current state.Writable[State]
	subs    *state.Subscriptions
}

var _ Owner = (*Registry)(nil)

// NewRegistry creates a registry in the Initialized state.
func NewRegistry() *Registry {
	current := state.NewSignal(Initialized)
	current.SetEqualFunc(state.EqualComparable[State])
	return &Registry{
		current: current,
		subs:    state.NewSubscriptions(),
	}
}

// CurrentState returns the registry's state.
func (r *Registry) CurrentState() State {
	if r == nil {
		return Destroyed
	}
	return r.current.Get()
}

// States exposes the state stream read-only.
func (r *Registry) States() state.Readable[State] {
	return r.current
}

// AddObserver registers fn for state changes. Observers added after
// destruction are called once with Destroyed and never again.
func (r *Registry) AddObserver(fn func(State)) func() {
	if r == nil || fn == nil {
		return func() {}
	}
	current := r.current.Get()
	if current == Destroyed {
		fn(Destroyed)
		return func() {}
	}
	unsub := r.current.Subscribe(fn)
	forget := r.subs.Add(unsub)
	fn(current)
	return func() {
		unsub()
		forget()
	}
}

// MoveTo transitions the registry to next. Reaching Destroyed notifies
// observers and then drops every registration.
func (r *Registry) MoveTo(next State) error {
	if r == nil {
		return ErrDestroyed
	}
	if !next.Valid() {
		return ierrors.Wrapf(ErrUnknownState, "move to %d", int(next))
	}
	if _, err := r.current.Apply(func(current State) (State, error) {
		if current == Destroyed && next != Destroyed {
			return current, ierrors.Wrapf(ErrDestroyed, "move to %s", next)
		}
		return next, nil
	}); err != nil {
		return err
	}
	if next == Destroyed {
		r.subs.Clear()
	}
	return nil
}
