package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/engine"
	"github.com/markInTheAbyss/tdactor-go/timeout"
)

// Scheduler is a single-threaded cooperative event loop hosting a set
// of actors (C4). Scheduler 0 (the "main" scheduler) is never started
// as its own goroutine; it is driven synchronously by Runtime.RunMain.
// Every other scheduler runs its tick loop on a dedicated OS-backed
// goroutine via engine.Runner.
type Scheduler struct {
	index int
	rt    *Runtime
	log   zerolog.Logger

	ready readyQueue
	inbox inboxQueue
	wheel *timeout.Wheel[actor.RawID]

	wake chan struct{}

	runner   engine.Runner
	finished bool
}

func newScheduler(index int, rt *Runtime, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		index: index,
		rt:    rt,
		log:   log.With().Int("scheduler", index).Logger(),
		wheel: timeout.New[actor.RawID](),
		wake:  make(chan struct{}, 1),
	}
}

// Index returns this scheduler's position in [0, N).
func (s *Scheduler) Index() int { return s.index }

func (s *Scheduler) notifyWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) pushInbox(target actor.RawID, ev actor.Event) bool {
	if s.inbox.push(crossMsg{target: target, ev: ev}) {
		s.notifyWake()
		return true
	}
	return false
}

func (s *Scheduler) pushReady(id actor.RawID) {
	s.ready.push(id)
	s.notifyWake()
}

// drainInbox moves every queued cross-scheduler message into its
// target actor's mailbox, readying the actor if its mailbox was empty.
func (s *Scheduler) drainInbox() {
	for _, msg := range s.inbox.drainAll() {
		info := s.rt.lookup(msg.target)
		if info == nil {
			continue
		}
		if actor.State(info.state.Load()) == actor.StateClosed && msg.ev.Kind != actor.KindStop {
			continue
		}
		if info.mailbox.Enqueue(msg.ev) {
			s.ready.push(msg.target)
		}
	}
}

// drainDueTimeouts delivers a Timeout event to every actor whose
// primary timeout slot has fired.
func (s *Scheduler) drainDueTimeouts(now time.Time) {
	for _, id := range s.wheel.DrainDue(now) {
		s.pushInbox(id, actor.TimeoutEvent())
	}
}

// runActor drains one actor's mailbox to completion, dispatching every
// event to its hooks. This is "process mailbox to completion within
// one turn": no other actor runs until this one's queue (as of the
// start of this call) is exhausted.
func (s *Scheduler) runActor(id actor.RawID) {
	info := s.rt.lookup(id)
	if info == nil {
		return
	}
	events := info.mailbox.Drain(-1)
	if len(events) == 0 {
		return
	}
	ctx := &actorCtx{sched: s, info: info}
	for _, ev := range events {
		if actor.State(info.state.Load()) == actor.StateClosed {
			break
		}
		s.dispatch(info, ctx, ev)
	}
}

func (s *Scheduler) dispatch(info *actorInfo, ctx actor.Ctx, ev actor.Event) {
	switch ev.Kind {
	case actor.KindStart:
		if actor.State(info.state.Load()) == actor.StateCreated {
			info.hooks.OnStart(ctx)
			info.state.Store(int32(actor.StateRunning))
		}
	case actor.KindStop:
		if actor.State(info.state.Load()) != actor.StateClosed {
			info.state.Store(int32(actor.StateClosing))
			info.hooks.OnClose(ctx)
			info.state.Store(int32(actor.StateClosed))
			info.mailbox.Close()
			s.wheel.CancelTimeout(info.raw)
		}
	case actor.KindHangup:
		info.hooks.OnHangup(ctx)
	case actor.KindSharedHangup:
		info.hooks.OnSharedHangup(ctx, ev.LinkToken)
	case actor.KindTimeout:
		info.hooks.OnTimeout(ctx)
	case actor.KindRaw:
		info.hooks.OnEvent(ctx, ev)
	case actor.KindClosure:
		if ev.Closure != nil {
			ev.Closure(info.hooks)
		}
	case actor.KindCustom:
		if ev.Custom != nil {
			ev.Custom.Handle(info.hooks)
		}
	}
}

type tickResult int

const (
	tickMore tickResult = iota
	tickIdle
	tickDone
)

// tick runs exactly one iteration of the main loop described in the
// spec: deliver due timeouts, drain the cross-scheduler inbox, then
// run every ready actor to completion.
func (s *Scheduler) tick() tickResult {
	now := time.Now()
	s.drainDueTimeouts(now)
	s.drainInbox()

	ran := false
	for {
		id, ok := s.ready.pop()
		if !ok {
			break
		}
		s.runActor(id)
		ran = true
	}

	if s.rt.isFinishing() && s.ready.empty() && s.isQuiescent() {
		return tickDone
	}
	if ran {
		return tickMore
	}
	return tickIdle
}

// isQuiescent reports whether this scheduler has no more outstanding
// work for any of its hosted actors (used only to decide when it is
// safe to honor a Finish request).
func (s *Scheduler) isQuiescent() bool {
	return s.rt.schedulerQuiescent(s.index)
}

// sleep blocks until woken, a due deadline arrives, or the context is
// done — "sleep until min(wheel.next_deadline, external wake)".
func (s *Scheduler) sleep(c engine.Context) {
	var timer *time.Timer
	if d, ok := s.wheel.NextDeadline(); ok {
		wait := time.Until(d)
		if wait < 0 {
			wait = 0
		}
		timer = time.NewTimer(wait)
		defer timer.Stop()
	}

	var timerC <-chan time.Time
	if timer != nil {
		timerC = timer.C
	}

	select {
	case <-s.wake:
	case <-timerC:
	case <-c.Done():
	case <-time.After(50 * time.Millisecond):
		// bounded fallback tick so Finish()/external notifications are
		// never missed for longer than this even without a timer or wake.
	}
}

// DoWork implements engine.Worker: one scheduler tick per call, used
// to drive every non-main scheduler on its own goroutine.
func (s *Scheduler) DoWork(c engine.Context) engine.WorkerStatus {
	switch s.tick() {
	case tickDone:
		s.rt.doneCount.Add(1)
		return engine.WorkerEnd
	case tickIdle:
		s.sleep(c)
	}
	return engine.WorkerContinue
}

// sleepFor blocks until woken, a due deadline arrives, or d elapses.
// Used by RunMain, which drives the main scheduler without an
// engine.Runner/Context of its own.
func (s *Scheduler) sleepFor(d time.Duration) {
	wait := d
	if dl, ok := s.wheel.NextDeadline(); ok {
		if until := time.Until(dl); until < wait {
			wait = until
		}
	}
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-s.wake:
	case <-timer.C:
	}
}

// newEngineRunner adapts a Scheduler into an engine.Runner driving its
// tick loop on a dedicated goroutine.
func newEngineRunner(s *Scheduler) engine.Runner {
	return engine.New(s)
}
