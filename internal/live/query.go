package live

import "context"

// Loader runs the query against the store.
type Loader[T any] func(ctx context.Context) (T, error)

// Query is a re-runnable read bound to the tables it depends on.
type Query[T any] struct {
	tracker *Tracker
	tables  []string
	load    Loader[T]
}

func NewQuery[T any](tracker *Tracker, load Loader[T], tables ...string) *Query[T] {
	return &Query[T]{tracker: tracker, tables: tables, load: load}
}

// Get runs the query once.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	return q.load(ctx)
}

// Observer is a running observation started by Query.Observe.
type Observer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the observation. It does not wait; use Done for that.
func (o *Observer) Cancel() { o.cancel() }

// Done is closed once the observer goroutine has exited.
func (o *Observer) Done() <-chan struct{} { return o.done }

// Observe delivers the current result to fn and then a fresh result after
// every invalidation of the query's tables, until ctx is done or Cancel is
// called. Invalidations that arrive while a reload is running collapse into
// one more reload. fn runs on the observer goroutine.
func (q *Query[T]) Observe(ctx context.Context, fn func(T, error)) *Observer {
	ctx, cancel := context.WithCancel(ctx)
	o := &Observer{cancel: cancel, done: make(chan struct{})}

	dirty := make(chan struct{}, 1)
	unsubscribe := q.tracker.Subscribe(func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}, q.tables...)

	go func() {
		defer close(o.done)
		defer unsubscribe()

		for {
			v, err := q.load(ctx)
			if ctx.Err() != nil {
				return
			}
			fn(v, err)

			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}
		}
	}()

	return o
}
