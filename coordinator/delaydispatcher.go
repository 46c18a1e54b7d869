package coordinator

import (
	"time"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/scheduler"
)

// DelayDispatcher is a FIFO queue of work items, each with an optional
// per-item delay override, dispatched one at a time no faster than
// once per DefaultDelay. Grounded on original_source's
// DelayDispatcher.h; its queue_/wakeup_at_/loop shape maps directly
// onto queue/wakeupAt/loop below, generalized from NetQueryPtr to any
// T so it can dispatch whatever the caller needs delay-throttled.
type DelayDispatcher[T any] struct {
	actor.Base

	ctx actor.Ctx

	defaultDelay time.Duration
	dispatch     func(item T)

	queue     []delayItem[T]
	wakeupAt  time.Time
	hasWakeup bool
}

type delayItem[T any] struct {
	item T
	// delay < 0 means "use DefaultDelay".
	delay time.Duration
}

// NewDelayDispatcher constructs a DelayDispatcher actor body; dispatch
// is invoked synchronously, on this actor's own scheduler, for each
// item in turn.
func NewDelayDispatcher[T any](defaultDelay time.Duration, dispatch func(item T)) *DelayDispatcher[T] {
	return &DelayDispatcher[T]{defaultDelay: defaultDelay, dispatch: dispatch}
}

// CreateDelayDispatcher creates a DelayDispatcher actor on src's
// scheduler.
func CreateDelayDispatcher[T any](rt *scheduler.Runtime, src scheduler.SchedulerSource, name string, defaultDelay time.Duration, dispatch func(item T)) actor.Own[*DelayDispatcher[T]] {
	return scheduler.CreateActor[*DelayDispatcher[T]](rt, src, name, func() *DelayDispatcher[T] {
		return NewDelayDispatcher(defaultDelay, dispatch)
	})
}

func (d *DelayDispatcher[T]) OnStart(ctx actor.Ctx) {
	d.ctx = ctx
}

func (d *DelayDispatcher[T]) OnTimeout(actor.Ctx) {
	d.loop()
}

// OnClose drains every remaining item, dispatching each in order,
// before the actor finishes closing — "drains on close".
func (d *DelayDispatcher[T]) OnClose(actor.Ctx) {
	for _, it := range d.queue {
		d.dispatch(it.item)
	}
	d.queue = nil
}

// Send enqueues item. It is dispatched at once if no wakeup is
// pending; after it is dispatched, the next item waits at least the
// default delay.
func (d *DelayDispatcher[T]) Send(item T) {
	d.sendWithDelay(item, -1)
}

// SendWithDelay enqueues item, overriding the default delay for this
// item only.
func (d *DelayDispatcher[T]) SendWithDelay(item T, delay time.Duration) {
	d.sendWithDelay(item, delay)
}

// CloseSilent drops every pending item without dispatching it, then
// stops — the non-draining counterpart to an ordinary Stop.
func (d *DelayDispatcher[T]) CloseSilent() {
	d.queue = nil
	if d.ctx != nil {
		d.ctx.Stop()
	}
}

func (d *DelayDispatcher[T]) sendWithDelay(item T, delay time.Duration) {
	d.queue = append(d.queue, delayItem[T]{item: item, delay: delay})
	d.loop()
}

func (d *DelayDispatcher[T]) loop() {
	now := time.Now()
	if d.hasWakeup && now.Before(d.wakeupAt) {
		if d.ctx != nil {
			d.ctx.SetTimeoutAt(d.wakeupAt)
		}
		return
	}
	if len(d.queue) == 0 {
		d.hasWakeup = false
		return
	}

	it := d.queue[0]
	d.queue = d.queue[1:]
	d.dispatch(it.item)

	delay := d.defaultDelay
	if it.delay >= 0 {
		delay = it.delay
	}
	d.wakeupAt = now.Add(delay)
	d.hasWakeup = true
	if len(d.queue) > 0 && d.ctx != nil {
		d.ctx.SetTimeoutAt(d.wakeupAt)
	}
}
