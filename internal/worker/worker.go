// Package worker serializes aggregation requests onto one background
// goroutine and debounces bursts of them. The engine itself is synchronous;
// this layer keeps callers responsive while heavy recomputation runs, and
// collapses rapid repeated requests into the final one.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTimeout is returned when the background goroutine does not answer a
// request within the configured deadline. The request may still finish
// later; its result is discarded.
var ErrTimeout = errors.New("worker: request timed out")

// Task is one unit of aggregation work.
type Task func(ctx context.Context) (any, error)

// Response carries a task result back to its requester, tagged with the
// request id it answers.
type Response struct {
	ID    string
	Value any
	Err   error
}

type request struct {
	id    string
	task  Task
	reply chan Response
}

// Dispatcher owns the single background goroutine. Tasks submitted while
// it runs execute strictly one at a time, in submission order. A stopped
// dispatcher degrades to running tasks synchronously in the caller, so the
// system stays functional without the background path.
type Dispatcher struct {
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	reqs    chan request
	quit    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewDispatcher builds a stopped dispatcher. timeout bounds how long Do
// waits for an answer; zero means wait forever.
func NewDispatcher(log *zap.Logger, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log, timeout: timeout}
}

// Start launches the background goroutine. Starting a running dispatcher
// is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.reqs = make(chan request)
	d.quit = make(chan struct{})
	d.running = true
	d.wg.Add(1)
	go d.loop(d.reqs, d.quit)
}

// Stop shuts the goroutine down and waits for the in-flight task, if any,
// to finish. Subsequent Do calls run synchronously.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.quit)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) loop(reqs <-chan request, quit <-chan struct{}) {
	defer d.wg.Done()
	for {
		select {
		case <-quit:
			return
		case req := <-reqs:
			value, err := req.task(context.Background())
			// The reply channel is buffered; a requester that timed out
			// and walked away never blocks the loop.
			req.reply <- Response{ID: req.id, Value: value, Err: err}
		}
	}
}

// Do submits a task and waits for its answer. Each request gets a fresh id
// and its own reply channel, so answers cannot cross between requests even
// under heavy concurrency. When the dispatcher is not running the task
// executes synchronously in the caller.
func (d *Dispatcher) Do(ctx context.Context, task Task) (any, error) {
	d.mu.Lock()
	running, reqs, quit := d.running, d.reqs, d.quit
	d.mu.Unlock()
	if !running {
		return task(ctx)
	}

	req := request{
		id:    uuid.NewString(),
		task:  task,
		reply: make(chan Response, 1),
	}

	var deadline <-chan time.Time
	if d.timeout > 0 {
		timer := time.NewTimer(d.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case reqs <- req:
	case <-quit:
		return task(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		d.log.Warn("request timed out before dispatch", zap.String("request_id", req.id))
		return nil, fmt.Errorf("%w (id %s)", ErrTimeout, req.id)
	}

	select {
	case resp := <-req.reply:
		if resp.ID != req.id {
			// Correlation is structural (per-request channel); a mismatch
			// means a programming error, not a recoverable condition.
			return nil, fmt.Errorf("worker: response %s answers request %s", resp.ID, req.id)
		}
		return resp.Value, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		d.log.Warn("request timed out awaiting result", zap.String("request_id", req.id))
		return nil, fmt.Errorf("%w (id %s)", ErrTimeout, req.id)
	}
}

// Debouncer collapses bursts of triggers into one trailing-edge call: only
// the function passed to the last Trigger of a quiet-period-breaking burst
// runs. Used for year-range scrubbing, where every intermediate range is
// obsolete the moment the next one arrives.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// NewDebouncer builds a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn after the quiet period, replacing any previously
// scheduled function. A zero interval runs fn immediately.
func (b *Debouncer) Trigger(fn func()) {
	if b.interval <= 0 {
		fn()
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = fn
	b.timer = time.AfterFunc(b.interval, b.fire)
}

func (b *Debouncer) fire() {
	b.mu.Lock()
	fn := b.pending
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop cancels any pending call.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = nil
}

// Flush runs any pending call now instead of waiting out the quiet period.
func (b *Debouncer) Flush() {
	b.mu.Lock()
	fn := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}
