package scheduler

import (
	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/promise"
)

// actorEventTarget adapts an actor.ID[A] into a promise.EventTarget so
// a Future can post its completion straight into an actor's ordinary
// mailbox as a KindRaw event, exactly like any other message that
// actor receives.
type actorEventTarget[A actor.Hooks] struct {
	id actor.ID[A]
}

func (t actorEventTarget[A]) Send(ev promise.RawEvent) bool {
	return t.id.Send(actor.RawEvent(ev.Tag))
}

// BindFuture arms future to post a KindRaw{tag} event to id when its
// paired Promise resolves — the scheduler-aware counterpart of
// Future.SetEvent for callers holding a typed actor.ID rather than a
// bare promise.EventTarget.
func BindFuture[A actor.Hooks, T any](future promise.Future[T], id actor.ID[A], tag uint64) {
	future.SetEvent(actorEventTarget[A]{id: id}, tag)
}
