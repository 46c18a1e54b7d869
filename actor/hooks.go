package actor

import "time"

// Ctx is the capability set available to an actor from inside any of
// its Hooks methods: it can touch only its own timeout and lifecycle,
// and obtain its own weak identity. Creating actors and sending to
// others is done through the scheduler package's free functions, which
// accept a Ctx to recover the caller's home scheduler.
type Ctx interface {
	// Stop requests this actor transition to Closing; idempotent.
	Stop()
	// SetTimeoutAt arms this actor's primary timeout slot, replacing
	// any previously armed deadline.
	SetTimeoutAt(deadline time.Time)
	// SetTimeoutIn is a convenience for SetTimeoutAt(time.Now().Add(d)).
	SetTimeoutIn(d time.Duration)
	// CancelTimeout clears this actor's primary timeout slot, if any.
	CancelTimeout()
	// SchedulerIndex is the index of the scheduler this actor is
	// pinned to.
	SchedulerIndex() int
	// Name is this actor's debug name.
	Name() string
}

// Hooks is the full capability set a user actor may implement. Every
// method is optional: embed Base to get no-op defaults and override
// only what you need, the same "embed the Unimplemented type" shape
// Go RPC stubs use.
type Hooks interface {
	OnStart(ctx Ctx)
	OnEvent(ctx Ctx, ev Event)
	OnTimeout(ctx Ctx)
	OnClose(ctx Ctx)
	OnHangup(ctx Ctx)
	OnSharedHangup(ctx Ctx, token int64)
}

// Base supplies no-op implementations of every Hooks method. Embed it
// in a user actor struct and override only the hooks that actor needs.
type Base struct{}

func (Base) OnStart(Ctx)               {}
func (Base) OnEvent(Ctx, Event)        {}
func (Base) OnTimeout(Ctx)             {}
func (Base) OnClose(Ctx)               {}
func (Base) OnHangup(Ctx)              {}
func (Base) OnSharedHangup(Ctx, int64) {}

var _ Hooks = Base{}
