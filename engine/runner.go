// Package engine is the cooperative-worker substrate the rest of this
// module is built on: a goroutine wrapper around a DoWork loop, plus
// Idle and Combine runners. Nothing in here knows about actors,
// schedulers or promises — those are built on top in sibling packages.
package engine

import "sync"

// Context is handed to a Worker on every DoWork call. Done is closed
// once the Runner hosting the worker has been asked to stop; a worker
// observing it should wind down and return WorkerEnd.
type Context interface {
	Done() <-chan struct{}
}

// WorkerStatus is returned by DoWork to tell the Runner whether to call
// DoWork again immediately or to stop the loop.
type WorkerStatus int

const (
	// WorkerContinue asks the Runner to invoke DoWork again.
	WorkerContinue WorkerStatus = iota
	// WorkerEnd asks the Runner to exit its loop and stop.
	WorkerEnd
)

// Worker does one unit of work per call and reports whether it wants
// to be called again. Implementations must not block forever without
// observing Context.Done.
type Worker interface {
	DoWork(c Context) WorkerStatus
}

// Runner is a started-and-stoppable unit of concurrency: a goroutine
// repeatedly driving a Worker until told to stop.
type Runner interface {
	Start()
	Stop()
}

type options struct {
	onStart func()
	onStop  func()
}

// Option configures a Runner produced by New, Idle or Combine.
type Option func(*options)

// OptOnStart registers a callback invoked once, synchronously, before
// the worker loop begins.
func OptOnStart(fn func()) Option {
	return func(o *options) { o.onStart = fn }
}

// OptOnStop registers a callback invoked once, synchronously, after
// the worker loop has fully stopped.
func OptOnStop(fn func()) Option {
	return func(o *options) { o.onStop = fn }
}

func newOptions(opt []Option) options {
	var o options
	for _, fn := range opt {
		fn(&o)
	}
	return o
}

type runnerContext struct {
	done chan struct{}
}

func (c *runnerContext) Done() <-chan struct{} { return c.done }

type runner struct {
	worker Worker
	opts   options

	once sync.Once
	ctx  *runnerContext
	wg   sync.WaitGroup
}

// New returns a Runner driving worker on its own goroutine until
// Stop is called or the worker itself reports WorkerEnd.
func New(worker Worker, opt ...Option) Runner {
	return &runner{
		worker: worker,
		opts:   newOptions(opt),
		ctx:    &runnerContext{done: make(chan struct{})},
	}
}

func (r *runner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if r.opts.onStart != nil {
			r.opts.onStart()
		}
		for {
			select {
			case <-r.ctx.done:
				if r.opts.onStop != nil {
					r.opts.onStop()
				}
				return
			default:
			}
			if r.worker.DoWork(r.ctx) == WorkerEnd {
				if r.opts.onStop != nil {
					r.opts.onStop()
				}
				return
			}
		}
	}()
}

func (r *runner) Stop() {
	r.once.Do(func() { close(r.ctx.done) })
	r.wg.Wait()
}

type idleRunner struct {
	opts options
}

// Idle returns a Runner that does nothing on Start and only runs the
// configured OptOnStop hook when Stop is called. Useful as the
// foundation of objects (like a closed-channel mailbox) whose only
// lifecycle requirement is "run the teardown hook exactly once".
func Idle(opt ...Option) Runner {
	return &idleRunner{opts: newOptions(opt)}
}

func (r *idleRunner) Start() {
	if r.opts.onStart != nil {
		r.opts.onStart()
	}
}

func (r *idleRunner) Stop() {
	if r.opts.onStop != nil {
		r.opts.onStop()
	}
}

// Combine returns a single Runner that starts and stops all of rr.
// Stop order is the reverse of Start order.
func Combine(rr ...Runner) Runner {
	return &combined{rr: rr}
}

type combined struct {
	rr []Runner
}

func (c *combined) Start() {
	for _, r := range c.rr {
		r.Start()
	}
}

func (c *combined) Stop() {
	for i := len(c.rr) - 1; i >= 0; i-- {
		c.rr[i].Stop()
	}
}
