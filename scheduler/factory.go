package scheduler

import (
	"errors"
	"fmt"

	"github.com/markInTheAbyss/tdactor-go/actor"
)

// ErrAlreadyClosed is the sentinel reported (via panic, wrapped) when
// code attempts to create an actor on a Runtime that has already been
// asked to Finish.
var ErrAlreadyClosed = errors.New("scheduler: runtime already finishing")

// SchedulerSource is satisfied by anything that knows which scheduler
// it is running on: actor.Ctx (inside a hook) and *Guard (from
// non-actor code holding the main-thread guard).
type SchedulerSource interface {
	SchedulerIndex() int
}

// CreateActorOnScheduler creates a new actor pinned to the scheduler
// at index, returning the sole Own handle. The actor enters Created
// immediately and a Start event is queued; OnStart runs on its first
// turn on that scheduler.
func CreateActorOnScheduler[A actor.Hooks](rt *Runtime, index int, name string, ctor func() A) actor.Own[A] {
	if rt.isFinishing() {
		panic(fmt.Errorf("%w: cannot create actor %q", ErrAlreadyClosed, name))
	}
	if err := rt.validateIndex(index); err != nil {
		panic(err)
	}
	raw := rt.newRawID()
	info := newActorInfo(raw, name, index, ctor())
	rt.register(info)
	rt.log.Debug().Str("actor", name).Int("scheduler", index).Msg("actor created")
	rt.Enqueue(raw, actor.StartEvent())
	return actor.NewOwn[A](rt, raw)
}

// CreateActor creates a new actor on src's current scheduler (either
// the scheduler a hook is running on, or the scheduler a Guard is
// bound to).
func CreateActor[A actor.Hooks](rt *Runtime, src SchedulerSource, name string, ctor func() A) actor.Own[A] {
	return CreateActorOnScheduler[A](rt, src.SchedulerIndex(), name, ctor)
}

// Self returns a typed weak handle to the actor ctx belongs to. Must
// only be called with the Ctx a hook was itself invoked with.
func Self[A actor.Hooks](ctx actor.Ctx) actor.ID[A] {
	ac := ctx.(*actorCtx)
	return actor.NewID[A](ac.sched.rt, ac.info.raw)
}
