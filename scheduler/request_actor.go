package scheduler

import (
	"errors"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/promise"
)

// ErrDataInaccessible is the fixed error a RequestActor reports once it
// has exhausted its retries without success, regardless of what the
// underlying attempts actually failed with.
var ErrDataInaccessible = errors.New("Requested data is inaccessible")

const defaultRequestTries = 2

// RequestActor drives a retryable, promise-producing operation: Run is
// invoked on this actor's home scheduler up to TriesLeft times, and
// each attempt's Future is awaited through the actor's own mailbox (via
// BindFuture) rather than blocking the scheduler goroutine. The first
// successful result is delivered through OnResult; once every attempt
// has failed, OnError receives ErrDataInaccessible instead of the last
// underlying error. This is the Go shape of the teacher's retryable
// request actor, grounded on original_source's RequestActor.h.
type RequestActor[T any] struct {
	actor.Base

	TriesLeft int
	Run       func(ctx actor.Ctx) promise.Future[T]
	OnResult  func(ctx actor.Ctx, value T)
	OnError   func(ctx actor.Ctx, err error)

	self    actor.ID[*RequestActor[T]]
	pending promise.Future[T]
}

// NewRequestActor constructs a RequestActor ready to be handed to
// CreateActor. triesLeft <= 0 falls back to the default of 2, matching
// the teacher's tries_left_ default.
func NewRequestActor[T any](
	triesLeft int,
	run func(ctx actor.Ctx) promise.Future[T],
	onResult func(ctx actor.Ctx, value T),
	onError func(ctx actor.Ctx, err error),
) *RequestActor[T] {
	if triesLeft <= 0 {
		triesLeft = defaultRequestTries
	}
	return &RequestActor[T]{TriesLeft: triesLeft, Run: run, OnResult: onResult, OnError: onError}
}

func (r *RequestActor[T]) OnStart(ctx actor.Ctx) {
	r.self = Self[*RequestActor[T]](ctx)
	r.tryRun(ctx)
}

func (r *RequestActor[T]) tryRun(ctx actor.Ctx) {
	f := r.Run(ctx)
	r.pending = f
	BindFuture(f, r.self, 0)
}

// OnEvent recognizes the Raw wakeup BindFuture posts once the current
// attempt's future resolves, retries on error while TriesLeft remains,
// and otherwise reports the terminal outcome and stops.
func (r *RequestActor[T]) OnEvent(ctx actor.Ctx, ev actor.Event) {
	if ev.Kind != actor.KindRaw {
		return
	}
	f := r.pending
	if !f.IsReady() {
		return
	}

	if f.IsError() {
		f.MoveAsError()
		r.TriesLeft--
		if r.TriesLeft > 0 {
			r.tryRun(ctx)
			return
		}
		if r.OnError != nil {
			r.OnError(ctx, ErrDataInaccessible)
		}
		ctx.Stop()
		return
	}

	value := f.MoveAsOk()
	if r.OnResult != nil {
		r.OnResult(ctx, value)
	}
	ctx.Stop()
}
