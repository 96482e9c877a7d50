package livedata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ztiany/android-simple-bus/lifecycle"
	"github.com/Ztiany/android-simple-bus/state"
)

type recorder[T any] struct {
	values []T
}

func (r *recorder[T]) OnChanged(value T) {
	r.values = append(r.values, value)
}

func startedOwner(t *testing.T) *lifecycle.Registry {
	t.Helper()
	owner := lifecycle.NewRegistry()
	require.NoError(t, owner.MoveTo(lifecycle.Started))
	return owner
}

func TestLiveData_ReplaysLatestValueToNewObserver(t *testing.T) {
	live := New[string](Config{})
	live.SetValue("a")
	live.SetValue("b")

	obs := &recorder[string]{}
	require.NoError(t, live.Observe(startedOwner(t), obs))
	require.Equal(t, []string{"b"}, obs.values)

	live.SetValue("c")
	require.Equal(t, []string{"b", "c"}, obs.values)
}

func TestLiveData_NoReplayWithoutValue(t *testing.T) {
	live := New[int](Config{})
	obs := &recorder[int]{}
	require.NoError(t, live.ObserveForever(obs))
	require.Empty(t, obs.values)

	_, ok := live.Value()
	require.False(t, ok)
}

func TestLiveData_InitialValueIsReplayed(t *testing.T) {
	live := NewWithValue(7, Config{})
	obs := &recorder[int]{}
	require.NoError(t, live.ObserveForever(obs))
	require.Equal(t, []int{7}, obs.values)

	value, ok := live.Value()
	require.True(t, ok)
	require.Equal(t, 7, value)
}

func TestLiveData_InactiveOwnerDefersDelivery(t *testing.T) {
	owner := lifecycle.NewRegistry()
	require.NoError(t, owner.MoveTo(lifecycle.Created))
	live := New[int](Config{})
	obs := &recorder[int]{}

	require.NoError(t, live.Observe(owner, obs))
	live.SetValue(1)
	live.SetValue(2)
	require.Empty(t, obs.values)
	require.True(t, live.HasObservers())
	require.False(t, live.HasActiveObservers())

	require.NoError(t, owner.MoveTo(lifecycle.Resumed))
	require.Equal(t, []int{2}, obs.values, "expected only the latest value once active")

	require.NoError(t, owner.MoveTo(lifecycle.Created))
	require.NoError(t, owner.MoveTo(lifecycle.Started))
	require.Equal(t, []int{2}, obs.values, "expected no redelivery of a seen value")
}

func TestLiveData_DestroyedOwnerRemovesObserver(t *testing.T) {
	owner := startedOwner(t)
	live := New[int](Config{})
	obs := &recorder[int]{}
	var removed []Observer[int]
	live.OnObserverRemoved(func(o Observer[int]) { removed = append(removed, o) })

	require.NoError(t, live.Observe(owner, obs))
	require.NoError(t, owner.MoveTo(lifecycle.Destroyed))
	require.False(t, live.HasObservers())
	require.Equal(t, []Observer[int]{obs}, removed)

	live.SetValue(1)
	require.Empty(t, obs.values)

	require.NoError(t, live.Observe(owner, obs))
	require.False(t, live.HasObservers(), "expected destroyed owner to be ignored")
}

func TestLiveData_ObserverBoundElsewhere(t *testing.T) {
	live := New[int](Config{})
	obs := &recorder[int]{}
	first := startedOwner(t)

	require.NoError(t, live.Observe(first, obs))
	require.NoError(t, live.Observe(first, obs))
	require.ErrorIs(t, live.Observe(startedOwner(t), obs), ErrObserverBoundElsewhere)
	require.ErrorIs(t, live.ObserveForever(obs), ErrObserverBoundElsewhere)

	forever := &recorder[int]{}
	require.NoError(t, live.ObserveForever(forever))
	require.NoError(t, live.ObserveForever(forever))
	require.ErrorIs(t, live.Observe(first, forever), ErrObserverBoundElsewhere)
}

func TestLiveData_NilArguments(t *testing.T) {
	live := New[int](Config{})
	require.ErrorIs(t, live.Observe(startedOwner(t), nil), ErrNilObserver)
	require.ErrorIs(t, live.Observe(nil, &recorder[int]{}), ErrNilOwner)
	require.ErrorIs(t, live.ObserveForever(nil), ErrNilObserver)
	require.NotPanics(t, func() {
		live.RemoveObserver(nil)
		live.RemoveObserver(&recorder[int]{})
		live.RemoveObservers(nil)
	})
}

func TestLiveData_RemoveObservers(t *testing.T) {
	owner := startedOwner(t)
	live := New[int](Config{})
	a, b, c := &recorder[int]{}, &recorder[int]{}, &recorder[int]{}
	require.NoError(t, live.Observe(owner, a))
	require.NoError(t, live.Observe(owner, b))
	require.NoError(t, live.ObserveForever(c))

	live.RemoveObservers(owner)
	require.Equal(t, []Observer[int]{c}, live.Observers())

	live.SetValue(1)
	require.Empty(t, a.values)
	require.Empty(t, b.values)
	require.Equal(t, []int{1}, c.values)
}

func TestLiveData_QueuedDeliveryDroppedAfterRemoval(t *testing.T) {
	queue := state.NewQueue()
	live := New[int](Config{Scheduler: queue})
	obs := &recorder[int]{}
	require.NoError(t, live.ObserveForever(obs))

	live.SetValue(1)
	require.Equal(t, 1, queue.Len())
	live.RemoveObserver(obs)
	queue.Flush()
	require.Empty(t, obs.values)
}

func TestLiveData_ReentrantSetValue(t *testing.T) {
	live := New[int](Config{})
	var first, second []int
	a := NewObserver(func(v int) {
		first = append(first, v)
		if v == 1 {
			live.SetValue(2)
		}
	})
	b := NewObserver(func(v int) { second = append(second, v) })
	require.NoError(t, live.ObserveForever(a))
	require.NoError(t, live.ObserveForever(b))

	live.SetValue(1)
	require.Equal(t, []int{1, 2}, first)
	require.Equal(t, 2, second[len(second)-1], "expected the newest value to be delivered last")
	require.LessOrEqual(t, len(second), 2)
}

func TestLiveData_OnObserverRemovedUnsubscribe(t *testing.T) {
	live := New[int](Config{})
	calls := 0
	unsub := live.OnObserverRemoved(func(Observer[int]) { calls++ })
	obs := NewObserver(func(int) {})

	require.NoError(t, live.ObserveForever(obs))
	unsub()
	unsub()
	live.RemoveObserver(obs)
	require.Zero(t, calls)
}

type bindingObserver struct {
	bound  int
	values []string
}

func (o *bindingObserver) OnChanged(value string) {
	o.values = append(o.values, "direct:"+value)
}

func (o *bindingObserver) BindDelivery() func(string) {
	o.bound++
	at := o.bound
	return func(value string) {
		o.values = append(o.values, value+"@"+string(rune('0'+at)))
	}
}

func TestLiveData_DeliveryBoundWhenScheduled(t *testing.T) {
	queue := state.NewQueue()
	live := New[string](Config{Scheduler: queue})
	obs := &bindingObserver{}
	require.NoError(t, live.ObserveForever(obs))

	live.SetValue("a")
	live.SetValue("b")
	require.Equal(t, 2, obs.bound, "expected binding at schedule time")
	require.Empty(t, obs.values)

	queue.Flush()
	require.Equal(t, []string{"a@1", "b@2"}, obs.values)
}

type funcObserver func(int)

func (f funcObserver) OnChanged(v int) { f(v) }

func TestLiveData_RejectsNonComparableObserver(t *testing.T) {
	live := New[int](Config{})
	obs := funcObserver(func(int) {})

	require.False(t, Comparable[int](obs))
	require.False(t, Comparable[int](nil))
	require.True(t, Comparable[int](NewObserver(func(int) {})))

	require.ErrorIs(t, live.ObserveForever(obs), ErrObserverNotComparable)
	require.ErrorIs(t, live.Observe(startedOwner(t), obs), ErrObserverNotComparable)
	require.NotPanics(t, func() { live.RemoveObserver(obs) })
	require.False(t, live.HasObservers())
}
