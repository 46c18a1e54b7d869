// Package promise implements the single-shot Promise/Future pair (C5)
// and its composition helpers (join, safe-resolve, MultiPromise;
// RequestActor lives in the scheduler package), all grounded on the teacher's cooperative-worker
// shape: a Future resolves by posting a Raw event into an actor's
// ordinary mailbox rather than through any out-of-band signalling.
package promise

import (
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// ErrCanceled is returned when a cancellable Promise's token becomes
// active before it is otherwise resolved.
var ErrCanceled = errors.New("promise: canceled")

// ErrLostPromise is the synthetic error a Future observes when its
// Promise is discarded without ever being explicitly resolved.
var ErrLostPromise = errors.New("promise: lost promise")

// EventTarget is the minimal capability a Future needs to deliver its
// result: post an event to some actor's mailbox. actor.ID[A] does not
// satisfy it directly (its Send takes an actor.Event); the scheduler
// package's BindFuture adapts one, so this package never imports the
// actor package.
type EventTarget interface {
	Send(ev RawEvent) bool
}

// RawEvent is the minimal event shape a Future posts on resolution: an
// opaque tag the receiving actor recognizes. The scheduler package's
// adapter turns it into an actor.Event of KindRaw carrying the same tag.
type RawEvent struct {
	Tag uint64
}

type futureState int32

const (
	stateWaiting futureState = iota
	stateReadyOK
	stateReadyErr
	stateTaken
)

type sharedState[T any] struct {
	mu     sync.Mutex
	state  futureState
	value  T
	err    error
	target EventTarget
	tag    uint64
	log    *zerolog.Logger

	hasDefault bool
	defaultVal T
}

// Promise is the single-shot writable endpoint.
type Promise[T any] struct {
	s *sharedState[T]
}

// Future is the paired single-shot readable endpoint, armed to post a
// Raw event to an actor when its Promise resolves.
type Future[T any] struct {
	s *sharedState[T]
}

// New returns a freshly bound Promise/Future pair, equivalent to the
// spec's init_promise_future(&promise, &future).
func New[T any]() (Promise[T], Future[T]) {
	s := &sharedState[T]{}
	armFinalizer(s)
	return Promise[T]{s: s}, Future[T]{s: s}
}

// NewSafe is New, except a Promise discarded (explicitly, or found
// unresolved by the finalizer safety net) without ever being resolved
// resolves with defaultValue instead of ErrLostPromise — the spec's
// safe_promise(p, default).
func NewSafe[T any](defaultValue T) (Promise[T], Future[T]) {
	s := &sharedState[T]{hasDefault: true, defaultVal: defaultValue}
	armFinalizer(s)
	return Promise[T]{s: s}, Future[T]{s: s}
}

func armFinalizer[T any](s *sharedState[T]) {
	runtime.SetFinalizer(s, func(s *sharedState[T]) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != stateWaiting {
			return
		}
		if s.hasDefault {
			s.state = stateReadyOK
			s.value = s.defaultVal
			return
		}
		s.state = stateReadyErr
		s.err = ErrLostPromise
		if s.log != nil {
			s.log.Warn().Msg("promise garbage-collected while still unresolved")
		}
	})
}

// SetEvent arms the Future: once its Promise resolves, a RawEvent{Tag:
// tag} is posted to target. Must be called before resolution to be
// observed by the consumer synchronously; if the promise is already
// resolved, SetEvent posts immediately.
func (f Future[T]) SetEvent(target EventTarget, tag uint64) {
	f.s.mu.Lock()
	already := f.s.state == stateReadyOK || f.s.state == stateReadyErr
	f.s.target = target
	f.s.tag = tag
	f.s.mu.Unlock()
	if already {
		target.Send(RawEvent{Tag: tag})
	}
}

// IsReady reports whether the promise has been resolved (and not yet
// taken).
func (f Future[T]) IsReady() bool {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.state == stateReadyOK || f.s.state == stateReadyErr
}

// IsError reports whether the promise resolved with an error. Only
// meaningful once IsReady is true.
func (f Future[T]) IsError() bool {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.state == stateReadyErr
}

// MoveAsOk takes the success value, transitioning Taken. Panics if the
// future is not in a resolved-ok state — a programmer error, matching
// the spec's "invariant violations abort the process".
func (f Future[T]) MoveAsOk() T {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.state != stateReadyOK {
		panic("promise: MoveAsOk called on a future that is not ready-ok")
	}
	f.s.state = stateTaken
	return f.s.value
}

// MoveAsError takes the error value, transitioning Taken.
func (f Future[T]) MoveAsError() error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.state != stateReadyErr {
		panic("promise: MoveAsError called on a future that is not ready-err")
	}
	f.s.state = stateTaken
	return f.s.err
}

func (p Promise[T]) resolve(value T, err error) bool {
	p.s.mu.Lock()
	if p.s.state != stateWaiting {
		p.s.mu.Unlock()
		return false
	}
	if err != nil {
		p.s.state = stateReadyErr
		p.s.err = err
	} else {
		p.s.state = stateReadyOK
		p.s.value = value
	}
	target, tag := p.s.target, p.s.tag
	p.s.mu.Unlock()

	if target != nil {
		target.Send(RawEvent{Tag: tag})
	}
	return true
}

// SetValue resolves the promise with a success value. A duplicate
// resolution is a silent no-op (the spec allows either behavior;
// use MustSetValue to panic on misuse instead).
func (p Promise[T]) SetValue(v T) bool { return p.resolve(v, nil) }

// SetError resolves the promise with an error.
func (p Promise[T]) SetError(err error) bool { return p.resolve(*new(T), err) }

// MustSetValue resolves the promise, panicking if it was already
// resolved — the "configurable... panic" variant from the spec.
func (p Promise[T]) MustSetValue(v T) {
	if !p.SetValue(v) {
		panic("promise: MustSetValue called on an already-resolved promise")
	}
}

// MustSetError is MustSetValue's error counterpart.
func (p Promise[T]) MustSetError(err error) {
	if !p.SetError(err) {
		panic("promise: MustSetError called on an already-resolved promise")
	}
}

// Discard resolves the promise with ErrLostPromise (or, for a
// NewSafe-constructed promise, its default value) if it has not
// already been resolved. This is the explicit stand-in for "dropped
// unresolved" in a language without destructors: callers that may
// abandon a promise without using it must call Discard (commonly via
// defer) so its Future observes a resolution rather than hanging
// forever. The finalizer installed by New/NewSafe is only a
// best-effort safety net and must not be relied on for timely
// resolution.
func (p Promise[T]) Discard() {
	if p.s.hasDefault {
		p.resolve(p.s.defaultVal, nil)
		return
	}
	p.resolve(*new(T), ErrLostPromise)
}

// IsCanceled reports whether err is (or wraps) ErrCanceled.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// Lambda wraps a plain callback as a Promise: fn runs synchronously on
// whichever goroutine resolves it (the producing thread, not any
// actor's mailbox), matching the spec's "lambda promise" convenience
// wrapper. Use this only where cross-thread signalling into an actor
// is unnecessary.
func Lambda[T any](fn func(T, error)) Promise[T] {
	p, f := New[T]()
	f.SetEvent(lambdaSink[T]{f: f, fn: fn}, 0)
	return p
}

type lambdaSink[T any] struct {
	f  Future[T]
	fn func(T, error)
}

func (s lambdaSink[T]) Send(RawEvent) bool {
	if s.f.IsError() {
		s.fn(*new(T), s.f.MoveAsError())
	} else {
		s.fn(s.f.MoveAsOk(), nil)
	}
	return true
}
