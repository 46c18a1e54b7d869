// Package scheduler implements the scheduler and runtime (C4): a
// fixed-topology set of cooperative event loops, one per OS thread,
// hosting the actors created on them, plus the identity Backend
// (actor.Backend) that routes every send and owner/shared release.
package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markInTheAbyss/tdactor-go/actor"
)

// Runtime is the root object: a fixed array of Schedulers plus the
// global actor registry. Construct with New, then Start, drive
// scheduler 0 with RunMain, and eventually Finish.
type Runtime struct {
	schedulers []*Scheduler
	log        zerolog.Logger
	epoch      uuid.UUID

	mu       sync.RWMutex
	registry map[actor.RawID]*actorInfo
	nextID   atomic.Uint64

	finishing atomic.Bool
	doneCount atomic.Int32
}

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithLogger installs a zerolog.Logger used for every scheduler and
// lifecycle log line. Defaults to a disabled logger (no output).
func WithLogger(log zerolog.Logger) Option {
	return func(rt *Runtime) { rt.log = log }
}

// New builds a Runtime with 1 (the main scheduler, index 0) plus
// extraThreadCount additional schedulers, each backed by its own OS
// thread once Start is called. extraMainThreadCount is reserved for
// additional cooperative stacks sharing the main OS thread; it is
// accepted for interface compatibility but currently always zero cost
// beyond bookkeeping, matching the spec's "rarely used; accepts zero".
func New(extraThreadCount, extraMainThreadCount int, opts ...Option) *Runtime {
	rt := &Runtime{
		log:      zerolog.Nop(),
		epoch:    uuid.New(),
		registry: make(map[actor.RawID]*actorInfo),
	}
	for _, opt := range opts {
		opt(rt)
	}
	_ = extraMainThreadCount

	n := 1 + extraThreadCount
	rt.schedulers = make([]*Scheduler, n)
	for i := 0; i < n; i++ {
		rt.schedulers[i] = newScheduler(i, rt, rt.log)
	}
	rt.log.Info().Str("epoch", rt.epoch.String()).Int("schedulers", n).Msg("runtime constructed")
	return rt
}

// SchedulerCount returns the fixed number of schedulers.
func (rt *Runtime) SchedulerCount() int { return len(rt.schedulers) }

// Start spawns one goroutine per non-main scheduler (index > 0). The
// main scheduler (index 0) is driven by RunMain, never by its own
// goroutine.
func (rt *Runtime) Start() {
	for _, s := range rt.schedulers[1:] {
		s.runner = newEngineRunner(s)
		s.runner.Start()
	}
}

// RunMain advances the main scheduler (index 0) for at most maxWait,
// ticking it while there is ready work and sleeping in between. It
// returns true iff a subsequent call is expected to make progress,
// i.e. Finish has not yet fully drained every scheduler.
func (rt *Runtime) RunMain(maxWait time.Duration) bool {
	main := rt.schedulers[0]
	deadline := time.Now().Add(maxWait)
	for {
		switch main.tick() {
		case tickDone:
			if !main.finished {
				main.finished = true
				rt.doneCount.Add(1)
			}
			return false
		case tickIdle:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return !rt.IsFinished()
			}
			main.sleepFor(remaining)
			return !rt.IsFinished()
		case tickMore:
			if time.Now().After(deadline) {
				return !rt.IsFinished()
			}
		}
	}
}

// Finish requests global termination: every currently registered actor
// is sent a Stop event. Schedulers drain outstanding Stop/Hangup
// traffic and exit; events posted after Finish has been observed by a
// scheduler are dropped, per the spec.
func (rt *Runtime) Finish() {
	if !rt.finishing.CompareAndSwap(false, true) {
		return
	}
	rt.log.Info().Msg("finish requested")
	rt.mu.RLock()
	infos := make([]*actorInfo, 0, len(rt.registry))
	for _, info := range rt.registry {
		infos = append(infos, info)
	}
	rt.mu.RUnlock()
	for _, info := range infos {
		rt.Enqueue(info.raw, actor.StopEvent())
	}
	for _, s := range rt.schedulers {
		s.notifyWake()
	}
}

func (rt *Runtime) isFinishing() bool { return rt.finishing.Load() }

// IsFinished reports whether every scheduler has observed Finish and
// drained its hosted actors.
func (rt *Runtime) IsFinished() bool {
	return rt.finishing.Load() && int(rt.doneCount.Load()) == len(rt.schedulers)
}

func (rt *Runtime) schedulerQuiescent(index int) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	for _, info := range rt.registry {
		if info.schedIndex != index {
			continue
		}
		if actor.State(info.state.Load()) != actor.StateClosed {
			return false
		}
	}
	return true
}

func (rt *Runtime) lookup(id actor.RawID) *actorInfo {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.registry[id]
}

func (rt *Runtime) register(info *actorInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.registry[info.raw] = info
}

// --- actor.Backend ---

var _ actor.Backend = (*Runtime)(nil)

// Enqueue implements actor.Backend by pushing ev onto the target
// actor's home scheduler inbox; the inbox hop is taken uniformly for
// same- and cross-scheduler sends (see "Send variants" in the design
// notes), so Mailbox.Enqueue itself is only ever called by a single
// goroutine: the target's home scheduler, while draining its inbox.
func (rt *Runtime) Enqueue(id actor.RawID, ev actor.Event) bool {
	info := rt.lookup(id)
	if info == nil {
		return false
	}
	if actor.State(info.state.Load()) == actor.StateClosed && ev.Kind != actor.KindStop {
		return false
	}
	return rt.schedulers[info.schedIndex].pushInbox(id, ev)
}

// ReleaseOwn implements actor.Backend.
func (rt *Runtime) ReleaseOwn(id actor.RawID) {
	info := rt.lookup(id)
	if info == nil {
		return
	}
	if info.ownerCount.Add(-1) <= 0 {
		rt.Enqueue(id, actor.StopEvent())
	}
}

// RetainShared implements actor.Backend.
func (rt *Runtime) RetainShared(id actor.RawID, linkToken int64) {
	info := rt.lookup(id)
	if info == nil {
		return
	}
	info.sharedMu.Lock()
	info.sharedCounts[linkToken]++
	info.sharedMu.Unlock()
}

// ReleaseShared implements actor.Backend.
func (rt *Runtime) ReleaseShared(id actor.RawID, linkToken int64) {
	info := rt.lookup(id)
	if info == nil {
		return
	}
	info.sharedMu.Lock()
	info.sharedCounts[linkToken]--
	fire := info.sharedCounts[linkToken] <= 0
	if fire {
		delete(info.sharedCounts, linkToken)
	}
	info.sharedMu.Unlock()
	if fire {
		rt.Enqueue(id, actor.SharedHangupEvent(linkToken))
	}
}

// IsRunning implements actor.Backend.
func (rt *Runtime) IsRunning(id actor.RawID) bool {
	info := rt.lookup(id)
	return info != nil && actor.State(info.state.Load()) == actor.StateRunning
}

// DebugName implements actor.Backend.
func (rt *Runtime) DebugName(id actor.RawID) string {
	info := rt.lookup(id)
	if info == nil {
		return ""
	}
	return info.name
}

func (rt *Runtime) newRawID() actor.RawID {
	return actor.RawID(rt.nextID.Add(1))
}

func (rt *Runtime) validateIndex(index int) error {
	if index < 0 || index >= len(rt.schedulers) {
		return fmt.Errorf("scheduler index %d out of range [0,%d)", index, len(rt.schedulers))
	}
	return nil
}
