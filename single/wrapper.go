package single

import (
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Ztiany/android-simple-bus/livedata"
)

// wrapper stands in for an observer on the host. version is the holder's
// version when the wrapper was created and never changes.
type wrapper[T any] struct {
	id      ulid.ULID
	version int64
	origin  livedata.Observer[T]
	holder  *LiveData[T]
}

var _ livedata.DeliveryBinder[int] = (*wrapper[int])(nil)

func (w *wrapper[T]) OnChanged(value T) {
	w.deliver(value, w.holder.version.Load())
}

// BindDelivery pins the write a scheduled delivery belongs to, so a later
// write before the flush cannot make a replay look new.
func (w *wrapper[T]) BindDelivery() func(T) {
	written := w.holder.version.Load()
	return func(value T) {
		w.deliver(value, written)
	}
}

func (w *wrapper[T]) deliver(value T, written int64) {
	if w.version < written && w.origin != nil {
		w.origin.OnChanged(value)
		return
	}
	w.holder.log.Debug("suppressed stale delivery",
		zap.Stringer("wrapper", w.id),
		zap.Int64("recorded", w.version),
		zap.Int64("written", written),
	)
}
