package fetch

// State identifies which variant a Result currently holds.
type State int

const (
	StateLoading State = iota
	StateError
	StateEmpty
	StateData
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateData:
		return "data"
	default:
		return "unknown"
	}
}

// Result is the classified outcome of an asynchronous data load: exactly one
// of Loading, Error, EmptyData or Data at any time.
type Result[T any] struct {
	state State
	err   error
	data  T
}

func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

func Errored[T any](cause error) Result[T] {
	return Result[T]{state: StateError, err: cause}
}

func Empty[T any]() Result[T] {
	return Result[T]{state: StateEmpty}
}

func Data[T any](data T) Result[T] {
	return Result[T]{state: StateData, data: data}
}

func (r Result[T]) State() State {
	return r.state
}

// Err returns the cause for an error result, nil otherwise.
func (r Result[T]) Err() error {
	return r.err
}

// Data returns the payload and true for a data result.
func (r Result[T]) Data() (T, bool) {
	return r.data, r.state == StateData
}

// Value returns the underlying payload regardless of state: the payload for
// Data, the vacuous payload for EmptyData, the zero value otherwise.
func (r Result[T]) Value() T {
	return r.data
}

// Handler receives exactly one callback per rendered result. Nil callbacks
// are skipped, so a caller may subscribe to a subset of states.
type Handler[T any] struct {
	OnLoading   func()
	OnError     func(cause error)
	OnEmptyData func()
	OnData      func(data T)
}

// Render dispatches the result to the single matching callback.
func (r Result[T]) Render(h Handler[T]) {
	switch r.state {
	case StateLoading:
		if h.OnLoading != nil {
			h.OnLoading()
		}
	case StateError:
		if h.OnError != nil {
			h.OnError(r.err)
		}
	case StateEmpty:
		if h.OnEmptyData != nil {
			h.OnEmptyData()
		}
	case StateData:
		if h.OnData != nil {
			h.OnData(r.data)
		}
	}
}
