package scheduler

import "github.com/markInTheAbyss/tdactor-go/actor"

// SendEvent delivers a pre-built event to id, deferred through its
// home scheduler's mailbox. Works across schedulers.
func SendEvent[A actor.Hooks](id actor.ID[A], ev actor.Event) bool {
	return id.Send(ev)
}

// SendClosureLater runs fn against the actor's concrete type on its
// home scheduler, always deferred onto the target's mailbox. Works
// across schedulers.
func SendClosureLater[A actor.Hooks](id actor.ID[A], fn func(a A)) bool {
	return id.Send(actor.ClosureEvent(func(v any) { fn(v.(A)) }))
}

// SendClosure is identical to SendClosureLater; kept as a distinct
// name only because the spec's source distinguishes the two
// historically (same-scheduler sends used to have a fast path that no
// longer exists once every send goes through the home inbox).
func SendClosure[A actor.Hooks](id actor.ID[A], fn func(a A)) bool {
	return SendClosureLater(id, fn)
}

// SendLambda is SendClosureLater under another name, matching the
// spec's "send variants" table.
func SendLambda[A actor.Hooks](id actor.ID[A], fn func(a A)) bool {
	return SendClosureLater(id, fn)
}

// TouchUnsafe runs fn directly against id's actor without going
// through its mailbox at all. It is only valid when src is running on
// id's home scheduler and id's actor is not itself currently
// executing — the spec's discouraged "direct same-scheduler touch"
// escape hatch. A call whose src is on a different scheduler than the
// target, or whose type parameter does not match the actor, panics; a
// call made while the target actor is itself executing is not detected.
func TouchUnsafe[A actor.Hooks](rt *Runtime, src SchedulerSource, id actor.ID[A], fn func(a A)) {
	info := rt.lookup(id.Raw())
	if info == nil {
		return
	}
	if info.schedIndex != src.SchedulerIndex() {
		panic("scheduler: TouchUnsafe called from a different scheduler than the target actor's home")
	}
	hooks, ok := info.hooks.(A)
	if !ok {
		panic("scheduler: TouchUnsafe type mismatch between ID[A] and the actor's concrete hooks type")
	}
	fn(hooks)
}
