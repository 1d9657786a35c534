// Package dispatch implements the two-queue model of the terminal client:
// blocking work (store access, password hashing) runs on a pool of workers,
// and whatever must touch the screen is posted back as an event for the
// single UI loop to run.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

const eventQueueSize = 128

var ErrClosed = errors.New("dispatcher closed")

// Task runs on a worker. The returned function, when non-nil, is posted to
// the UI queue.
type Task func(ctx context.Context) func()

type Dispatcher struct {
	workers int
	logger  logging.Logger

	events chan func()
	quit   chan struct{}

	startOnce sync.Once
	g         *errgroup.Group
	cancel    context.CancelFunc

	// task queue is unbounded so that the UI loop never blocks in Go
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool
}

func New(workers int, logger logging.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		workers: workers,
		logger:  logging.Component(logger, "dispatch"),
		events:  make(chan func(), eventQueueSize),
		quit:    make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Start launches the workers. Tasks submitted earlier wait in the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		ctx, d.cancel = context.WithCancel(ctx)
		d.g, ctx = errgroup.WithContext(ctx)
		for i := 0; i < d.workers; i++ {
			d.g.Go(func() error {
				d.work(ctx)
				return nil
			})
		}
		d.logger.Debug(ctx, "dispatcher started", "workers", d.workers)
	})
}

// next blocks until a task is queued. It reports false once the dispatcher
// is closed and the queue is empty.
func (d *Dispatcher) next() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.queue) == 0 {
		return nil, false
	}
	task := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return task, true
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		task, ok := d.next()
		if !ok {
			return
		}

		var done func()
		err := oops.Recover(func() {
			done = task(ctx)
		})
		if err != nil {
			logging.LogError(ctx, d.logger, "task panicked", err)
			continue
		}
		if done != nil {
			d.Post(done)
		}
	}
}

// Go queues task for a worker.
func (d *Dispatcher) Go(task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.queue = append(d.queue, task)
	d.cond.Signal()
	return nil
}

// Post queues fn for the UI loop. Once the dispatcher is closing, events
// that do not fit in the queue are dropped.
func (d *Dispatcher) Post(fn func()) {
	select {
	case d.events <- fn:
		return
	default:
	}

	select {
	case d.events <- fn:
	case <-d.quit:
		d.logger.Debug(context.Background(), "dropping UI event after close")
	}
}

// Events is drained by the UI loop, which runs every received function.
func (d *Dispatcher) Events() <-chan func() {
	return d.events
}

// Close stops accepting tasks, lets the workers finish the queue and waits
// for them.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.cond.Broadcast()
	close(d.quit)
	d.mu.Unlock()

	if d.g == nil {
		return nil
	}
	err := d.g.Wait()
	d.cancel()
	return err
}
