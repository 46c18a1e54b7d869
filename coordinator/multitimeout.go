// Package coordinator implements the derived coordinators (C6) built
// entirely atop actor, promise, scheduler and timeout: MultiTimeout, QueryMerger,
// StateManager and DelayDispatcher.
package coordinator

import (
	"time"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/timeout"
)

// MultiTimeout multiplexes any number of independently-keyed deadlines
// onto a single host actor's one primary timeout slot (actor.Ctx
// exposes only one). Embed a MultiTimeout in an actor, forward
// OnTimeout to FireDue, and call SetCallback once at construction.
// There is no equivalent type in original_source — tdlib's MultiTimeout
// is itself an Actor wrapping the same per-key Wheel idea this package
// already built for the per-scheduler C2 wheel; reusing timeout.Wheel
// here keeps that grounding literal.
type MultiTimeout struct {
	wheel    *timeout.Wheel[int64]
	callback func(ctx actor.Ctx, key int64)
}

// NewMultiTimeout returns an empty MultiTimeout.
func NewMultiTimeout() *MultiTimeout {
	return &MultiTimeout{wheel: timeout.New[int64]()}
}

// SetCallback installs the function invoked once per due key. Must be
// called before any timeout can usefully fire.
func (m *MultiTimeout) SetCallback(fn func(ctx actor.Ctx, key int64)) {
	m.callback = fn
}

// SetTimeoutAt arms (or replaces) key's deadline.
func (m *MultiTimeout) SetTimeoutAt(ctx actor.Ctx, key int64, deadline time.Time) {
	m.wheel.SetTimeoutAt(key, deadline)
	m.rearm(ctx)
}

// SetTimeoutIn is SetTimeoutAt(key, time.Now().Add(d)).
func (m *MultiTimeout) SetTimeoutIn(ctx actor.Ctx, key int64, d time.Duration) {
	m.SetTimeoutAt(ctx, key, time.Now().Add(d))
}

// CancelTimeout clears key's deadline, if any.
func (m *MultiTimeout) CancelTimeout(ctx actor.Ctx, key int64) {
	m.wheel.CancelTimeout(key)
	m.rearm(ctx)
}

// FireDue must be called from the embedding actor's OnTimeout hook. It
// delivers callback(ctx, key) for every key whose deadline has passed;
// the callback may itself call SetTimeoutAt/SetTimeoutIn/CancelTimeout
// on this same MultiTimeout, including for keys not yet visited in
// this pass, since rearm always reflects the wheel's current content.
func (m *MultiTimeout) FireDue(ctx actor.Ctx) {
	for {
		key, ok := m.wheel.PopDue(time.Now())
		if !ok {
			break
		}
		if m.callback != nil {
			m.callback(ctx, key)
		}
	}
	m.rearm(ctx)
}

func (m *MultiTimeout) rearm(ctx actor.Ctx) {
	if deadline, ok := m.wheel.NextDeadline(); ok {
		ctx.SetTimeoutAt(deadline)
	} else {
		ctx.CancelTimeout()
	}
}

// Len reports the number of live pending keys.
func (m *MultiTimeout) Len() int { return m.wheel.Len() }
