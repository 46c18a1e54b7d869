package scheduler

import "sync/atomic"

// Guard is the scoped resource external (non-actor) code must hold to
// create actors or send events as if it were running on the main
// scheduler (index 0). Obtain one with Runtime.EnterGuard and Release
// it before the runtime may be allowed to assume no foreign thread is
// about to touch scheduler 0's actors.
type Guard struct {
	rt       *Runtime
	released atomic.Bool
}

var _ SchedulerSource = (*Guard)(nil)

// EnterGuard acquires a main-thread guard bound to scheduler 0.
func (rt *Runtime) EnterGuard() *Guard {
	return &Guard{rt: rt}
}

// SchedulerIndex implements SchedulerSource; a Guard is always bound
// to the main scheduler.
func (g *Guard) SchedulerIndex() int { return 0 }

// Release must be called exactly once, typically via defer, when the
// holder is done creating actors / sending events through this guard.
func (g *Guard) Release() {
	g.released.Store(true)
}
