// File: internal/concurrency/eventloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop runs posted callbacks one at a time on a goroutine locked to its
// own OS thread. The run queue is unbounded so Post never blocks the caller;
// callbacks are drained in batches to keep lock hold times short.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
)

const defaultBatchSize = 64

// LoopOption configures an EventLoop.
type LoopOption func(*EventLoop)

// WithCPU pins the loop thread to cpu. Negative values disable pinning.
func WithCPU(cpu int) LoopOption {
	return func(el *EventLoop) { el.cpu = cpu }
}

// WithBatchSize bounds how many callbacks are taken per lock acquisition.
func WithBatchSize(n int) LoopOption {
	return func(el *EventLoop) {
		if n > 0 {
			el.batchSize = n
		}
	}
}

// WithLogger sets the logger used for panics and pinning failures.
func WithLogger(l *zap.Logger) LoopOption {
	return func(el *EventLoop) {
		if l != nil {
			el.log = l
		}
	}
}

// EventLoop is a single-threaded callback runner.
type EventLoop struct {
	id        int
	cpu       int
	batchSize int
	log       *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue // of func()
	closed bool

	started  atomic.Bool
	threadID atomic.Int64
	doneCh   chan struct{}
	executed atomic.Uint64
	panics   atomic.Uint64
}

var _ api.Executor = (*EventLoop)(nil)

// NewEventLoop creates a stopped loop identified by id.
func NewEventLoop(id int, opts ...LoopOption) *EventLoop {
	el := &EventLoop{
		id:        id,
		cpu:       -1,
		batchSize: defaultBatchSize,
		log:       zap.NewNop(),
		tasks:     queue.New(),
		doneCh:    make(chan struct{}),
	}
	el.cond = sync.NewCond(&el.mu)
	el.threadID.Store(-1)
	for _, opt := range opts {
		opt(el)
	}
	return el
}

// ID returns the loop identifier.
func (el *EventLoop) ID() int { return el.id }

// Start launches Run on a new goroutine. Subsequent calls are no-ops.
func (el *EventLoop) Start() {
	if el.started.CompareAndSwap(false, true) {
		go el.run()
	}
}

// Run executes the loop on the calling goroutine until Stop.
// It returns immediately if the loop was already started.
func (el *EventLoop) Run() {
	if el.started.CompareAndSwap(false, true) {
		el.run()
	}
}

func (el *EventLoop) run() {
	defer close(el.doneCh)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	el.threadID.Store(CurrentThreadID())
	defer el.threadID.Store(-1)
	if el.cpu >= 0 {
		if err := PinCurrentThread(el.cpu); err != nil {
			el.log.Warn("cpu pinning failed", zap.Int("loop", el.id), zap.Int("cpu", el.cpu), zap.Error(err))
		}
	}

	batch := make([]func(), 0, el.batchSize)
	for {
		el.mu.Lock()
		for el.tasks.Length() == 0 && !el.closed {
			el.cond.Wait()
		}
		if el.tasks.Length() == 0 {
			// closed and drained
			el.mu.Unlock()
			return
		}
		for i := 0; i < el.batchSize && el.tasks.Length() > 0; i++ {
			batch = append(batch, el.tasks.Remove().(func()))
		}
		el.mu.Unlock()

		for i, task := range batch {
			el.execute(task)
			batch[i] = nil
		}
		batch = batch[:0]
	}
}

func (el *EventLoop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			el.panics.Add(1)
			el.log.Error("callback panicked", zap.Int("loop", el.id), zap.Any("panic", r), zap.Stack("stack"))
		}
		el.executed.Add(1)
	}()
	task()
}

// Post enqueues task. It never blocks and fails only after Stop.
func (el *EventLoop) Post(task func()) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	el.mu.Lock()
	if el.closed {
		el.mu.Unlock()
		return api.ErrContextClosed
	}
	el.tasks.Add(task)
	el.mu.Unlock()
	el.cond.Signal()
	return nil
}

// Pending returns the number of queued callbacks.
func (el *EventLoop) Pending() int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.tasks.Length()
}

// Executed returns how many callbacks have run, including panicking ones.
func (el *EventLoop) Executed() uint64 { return el.executed.Load() }

// Panics returns how many callbacks panicked.
func (el *EventLoop) Panics() uint64 { return el.panics.Load() }

// Stop refuses new work, lets the loop drain what is queued, and waits for
// the loop goroutine to exit. Called from the loop itself it only signals;
// the loop exits once the current callback and the queue are done. Safe to
// call more than once.
func (el *EventLoop) Stop() {
	el.Shutdown()
	if el.started.Load() && !el.InLoop() {
		<-el.doneCh
	}
}

// Shutdown refuses new work and signals the loop to exit after draining,
// without waiting for it.
func (el *EventLoop) Shutdown() {
	el.mu.Lock()
	el.closed = true
	el.mu.Unlock()
	el.cond.Broadcast()
}

// ThreadID returns the OS thread running the loop, or -1 when the loop is
// not running or the platform cannot tell.
func (el *EventLoop) ThreadID() int64 { return el.threadID.Load() }

// InLoop reports whether the caller runs on the loop thread.
func (el *EventLoop) InLoop() bool {
	id := el.threadID.Load()
	return id >= 0 && id == CurrentThreadID()
}

// Done is closed once a started loop has exited.
func (el *EventLoop) Done() <-chan struct{} { return el.doneCh }
