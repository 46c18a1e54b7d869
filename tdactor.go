// Package tdactor is the public entry point of the runtime: a thin
// re-export of scheduler, actor and promise's user-facing surface, so
// callers depend on one import instead of reaching into internal
// packages directly. The implementation lives in actor, promise,
// scheduler, timeout and coordinator; this file only forwards to it.
// Generic handle types (ID, Own, Shared, Promise, Future) are used
// directly from their owning packages: a type alias cannot carry its
// own type parameter, so re-exporting it here would just be another
// name for the same thing without adding anything.
package tdactor

import (
	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/promise"
	"github.com/markInTheAbyss/tdactor-go/scheduler"
)

// Runtime construction and lifecycle.
type (
	Runtime = scheduler.Runtime
	Option  = scheduler.Option
	Guard   = scheduler.Guard
)

// New builds a Runtime; see scheduler.New.
func New(extraThreadCount, extraMainThreadCount int, opts ...Option) *Runtime {
	return scheduler.New(extraThreadCount, extraMainThreadCount, opts...)
}

// WithLogger installs a zerolog.Logger used for every scheduler and
// lifecycle log line; see scheduler.WithLogger.
var WithLogger = scheduler.WithLogger

// Actor capability surface.
type (
	Hooks = actor.Hooks
	Base  = actor.Base
	Ctx   = actor.Ctx
	Event = actor.Event
	Kind  = actor.Kind
)

const (
	KindStart        = actor.KindStart
	KindStop         = actor.KindStop
	KindHangup       = actor.KindHangup
	KindSharedHangup = actor.KindSharedHangup
	KindTimeout      = actor.KindTimeout
	KindRaw          = actor.KindRaw
	KindClosure      = actor.KindClosure
	KindCustom       = actor.KindCustom
)

// CreateActorOnScheduler creates a new actor pinned to the scheduler
// at index; see scheduler.CreateActorOnScheduler.
func CreateActorOnScheduler[A actor.Hooks](rt *Runtime, index int, name string, ctor func() A) actor.Own[A] {
	return scheduler.CreateActorOnScheduler[A](rt, index, name, ctor)
}

// CreateActor creates a new actor on src's current scheduler; see
// scheduler.CreateActor.
func CreateActor[A actor.Hooks](rt *Runtime, src scheduler.SchedulerSource, name string, ctor func() A) actor.Own[A] {
	return scheduler.CreateActor[A](rt, src, name, ctor)
}

// Self returns a typed weak handle to the actor ctx belongs to.
func Self[A actor.Hooks](ctx Ctx) actor.ID[A] { return scheduler.Self[A](ctx) }

// SendEvent delivers a pre-built event to id.
func SendEvent[A actor.Hooks](id actor.ID[A], ev Event) bool { return scheduler.SendEvent(id, ev) }

// SendClosureLater runs fn against the actor's concrete type on its
// home scheduler, always deferred onto the target's mailbox.
func SendClosureLater[A actor.Hooks](id actor.ID[A], fn func(a A)) bool {
	return scheduler.SendClosureLater(id, fn)
}

// TouchUnsafe runs fn directly against id's actor without going
// through its mailbox; see scheduler.TouchUnsafe.
func TouchUnsafe[A actor.Hooks](rt *Runtime, src scheduler.SchedulerSource, id actor.ID[A], fn func(a A)) {
	scheduler.TouchUnsafe(rt, src, id, fn)
}

// BindFuture arms future to post a Raw event to id when its paired
// Promise resolves.
func BindFuture[A actor.Hooks, T any](future promise.Future[T], id actor.ID[A], tag uint64) {
	scheduler.BindFuture(future, id, tag)
}

// Promise/Future composition helpers (C5).
func NewPromise[T any]() (promise.Promise[T], promise.Future[T]) { return promise.New[T]() }
func NewSafe[T any](defaultValue T) (promise.Promise[T], promise.Future[T]) {
	return promise.NewSafe(defaultValue)
}
func Lambda[T any](fn func(T, error)) promise.Promise[T] { return promise.Lambda(fn) }
func Join[T any](futures ...promise.Future[T]) promise.Future[struct{}] {
	return promise.Join(futures...)
}

// IsCanceled reports whether err is (or wraps) ErrCanceled.
func IsCanceled(err error) bool { return promise.IsCanceled(err) }

// Error taxonomy (spec.md §7).
var (
	ErrCanceled         = promise.ErrCanceled
	ErrLostPromise      = promise.ErrLostPromise
	ErrHangup           = actor.ErrHangup
	ErrAlreadyClosed    = scheduler.ErrAlreadyClosed
	ErrDataInaccessible = scheduler.ErrDataInaccessible
)
