package cancel

// Outcome is the result of racing a primary future against a stopper. It is
// a tagged value: either the primary finished with a T, or the stopper fired
// first and the primary was cancelled, carrying the stopper's S. An Outcome
// is immutable once produced.
type Outcome[T, S any] struct {
	finished  T
	cancelled S
	isCancel  bool
}

// Finished returns an Outcome for a primary that completed with v.
func Finished[T, S any](v T) Outcome[T, S] {
	return Outcome[T, S]{finished: v}
}

// Cancelled returns an Outcome for a primary that was pre-empted by a
// stopper that completed with s.
func Cancelled[T, S any](s S) Outcome[T, S] {
	return Outcome[T, S]{cancelled: s, isCancel: true}
}

// IsCancelled reports whether the primary was cancelled.
func (o Outcome[T, S]) IsCancelled() bool {
	return o.isCancel
}

// Finished returns the primary's output. ok is false if the primary was
// cancelled.
func (o Outcome[T, S]) Finished() (v T, ok bool) {
	if o.isCancel {
		var zero T
		return zero, false
	}
	return o.finished, true
}

// Cancelled returns the stopper's output. ok is false if the primary
// finished.
func (o Outcome[T, S]) Cancelled() (s S, ok bool) {
	if !o.isCancel {
		var zero S
		return zero, false
	}
	return o.cancelled, true
}
