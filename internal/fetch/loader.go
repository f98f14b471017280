package fetch

import (
	"context"
	"sync"

	"github.com/kelsos/unit-review/internal/logger"
)

// Loader drives a single outstanding request to completion and classifies its
// outcome. Re-invoking Load restarts from Loading and invalidates any request
// still in flight: a settle belonging to a superseded request is discarded,
// never applied (last-request-wins).
//
// The notify callback runs with the loader's lock held so observers see state
// changes in order; it must not call back into the loader.
type Loader[T any] struct {
	mu      sync.Mutex
	seq     uint64
	current Result[T]
	notify  func(Result[T])
}

// NewLoader creates a loader that reports every state change to notify.
func NewLoader[T any](notify func(Result[T])) *Loader[T] {
	return &Loader[T]{
		current: Loading[T](),
		notify:  notify,
	}
}

// Result returns the loader's current result.
func (l *Loader[T]) Result() Result[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load issues one request via do and classifies the outcome. A payload for
// which isEmpty returns true becomes EmptyData, never Data. The call returns
// once Loading has been reported; the settle arrives through notify.
func (l *Loader[T]) Load(ctx context.Context, do func(ctx context.Context) (T, error), isEmpty func(T) bool) {
	l.mu.Lock()
	l.seq++
	gen := l.seq
	l.current = Loading[T]()
	l.emit(l.current)
	l.mu.Unlock()

	go func() {
		data, err := do(ctx)

		var result Result[T]
		switch {
		case err != nil:
			result = Errored[T](err)
		case isEmpty(data):
			// Keep the vacuous payload so observers reconciling
			// derived state can still reach it through Value.
			result = Result[T]{state: StateEmpty, data: data}
		default:
			result = Data(data)
		}

		l.mu.Lock()
		defer l.mu.Unlock()

		if gen != l.seq {
			logger.Debug("Discarding stale fetch result (generation %d, current %d)", gen, l.seq)
			return
		}
		if ctx.Err() != nil {
			logger.Debug("Discarding fetch result after cancellation: %v", ctx.Err())
			return
		}

		l.current = result
		l.emit(result)
	}()
}

// Invalidate discards any in-flight request without starting a new one. Used
// when the presenter unmounts so a late settle cannot touch a discarded store.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	l.seq++
	l.mu.Unlock()
}

func (l *Loader[T]) emit(result Result[T]) {
	if l.notify != nil {
		l.notify(result)
	}
}
