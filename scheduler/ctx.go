package scheduler

import (
	"time"

	"github.com/markInTheAbyss/tdactor-go/actor"
)

// actorCtx is the actor.Ctx handed to hooks while they run; it is only
// ever constructed and used synchronously within runActor, so touching
// the scheduler's wheel directly here is safe — we are on the home
// scheduler's own goroutine (or, for scheduler 0, the thread driving
// RunMain).
type actorCtx struct {
	sched *Scheduler
	info  *actorInfo
}

var _ actor.Ctx = (*actorCtx)(nil)

func (c *actorCtx) Stop() {
	c.sched.rt.Enqueue(c.info.raw, actor.StopEvent())
}

func (c *actorCtx) SetTimeoutAt(deadline time.Time) {
	c.sched.wheel.SetTimeoutAt(c.info.raw, deadline)
}

func (c *actorCtx) SetTimeoutIn(d time.Duration) {
	c.sched.wheel.SetTimeoutIn(c.info.raw, d)
}

func (c *actorCtx) CancelTimeout() {
	c.sched.wheel.CancelTimeout(c.info.raw)
}

func (c *actorCtx) SchedulerIndex() int { return c.sched.index }

func (c *actorCtx) Name() string { return c.info.name }
