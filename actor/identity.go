package actor

import "sync/atomic"

// RawID identifies one actor uniquely for the lifetime of the Runtime
// that created it. It carries no scheduler-routing information itself
// — the Backend behind a handle is responsible for routing.
type RawID uint64

// Backend is implemented by the scheduler package. Every identity
// handle (Own, Shared, ID) is a thin value type that defers all real
// work — enqueueing, ref-counting, liveness checks — to a Backend, so
// that this package has no dependency on scheduler internals.
type Backend interface {
	// Enqueue posts ev to the actor's mailbox from any goroutine.
	// Returns false if ev was dropped; otherwise reports whether the
	// queue ev was pushed onto (for the scheduler package's Runtime,
	// the home scheduler's inbox) transitioned from empty to
	// non-empty. Events posted to a Closing/Closed actor are dropped
	// silently (KindStop is idempotent and never dropped).
	Enqueue(id RawID, ev Event) bool
	// ReleaseOwn is called when the (sole) Own handle for id is
	// released; it schedules the actor's Stop.
	ReleaseOwn(id RawID)
	// RetainShared registers one more live Shared handle carrying
	// linkToken for id.
	RetainShared(id RawID, linkToken int64)
	// ReleaseShared releases one Shared handle carrying linkToken; if
	// it was the last one for that token, a SharedHangup event fires.
	ReleaseShared(id RawID, linkToken int64)
	// IsRunning reports whether id's actor is currently State Running,
	// the only state in which a weak ID may be "upgraded" for sending.
	IsRunning(id RawID) bool
	// DebugName returns the name the actor was created with.
	DebugName(id RawID) string
}

// ID is a weak, freely copyable handle to an actor. Holding one does
// not keep the actor alive. Unlike Own/Shared it carries no reference
// count: Go's garbage collector already reclaims the control block
// once the scheduler's own strong map reference to it is dropped, so
// ID needs no manual retain/release to avoid a memory leak — only to
// decide whether a Send should be honored.
type ID[A Hooks] struct {
	backend Backend
	raw     RawID
}

// NewID constructs an ID from a Backend and raw identifier. Called
// only by the scheduler package, which owns the Backend.
func NewID[A Hooks](backend Backend, raw RawID) ID[A] {
	return ID[A]{backend: backend, raw: raw}
}

// Raw returns the underlying scheduler-assigned identifier.
func (id ID[A]) Raw() RawID { return id.raw }

// Valid reports whether this ID was constructed against a live
// Backend (the zero ID is never valid).
func (id ID[A]) Valid() bool { return id.backend != nil }

// IsRunning reports whether the referenced actor is State Running.
func (id ID[A]) IsRunning() bool { return id.backend != nil && id.backend.IsRunning(id.raw) }

// Send posts ev to the actor's mailbox. Silently dropped if the actor
// is Closing/Closed, per the mailbox failure semantics in the spec.
func (id ID[A]) Send(ev Event) bool {
	if id.backend == nil {
		return false
	}
	return id.backend.Enqueue(id.raw, ev)
}

// Name returns the actor's debug name.
func (id ID[A]) Name() string {
	if id.backend == nil {
		return ""
	}
	return id.backend.DebugName(id.raw)
}

// Own is a move-only, exclusive owner handle: there is at most one
// live Own per actor. Releasing it (explicitly, or implicitly when it
// goes out of scope in the caller's own cleanup path) requests Stop.
// Go has no destructors, so "drop" is modeled as an explicit Release
// call; callers that must guarantee it runs use `defer own.Release()`.
type Own[A Hooks] struct {
	id       ID[A]
	released *atomic.Bool
}

// NewOwn constructs an Own handle. Called only by the scheduler
// package at actor-creation time.
func NewOwn[A Hooks](backend Backend, raw RawID) Own[A] {
	return Own[A]{id: NewID[A](backend, raw), released: &atomic.Bool{}}
}

// ID returns a weak handle to the same actor.
func (o Own[A]) ID() ID[A] { return o.id }

// Release drops this Own handle, requesting the actor's Stop. Safe to
// call at most once; a second call is a silent no-op (mirrors the
// idempotence of the Stop event it triggers).
func (o Own[A]) Release() {
	if o.released == nil || o.id.backend == nil {
		return
	}
	if o.released.CompareAndSwap(false, true) {
		o.id.backend.ReleaseOwn(o.id.raw)
	}
}

// Shared is a movable and clonable, lifetime-keeping (but non-owning)
// handle carrying the LinkToken supplied at creation. When the last
// clone of a Shared handle for a given actor+token pair is released,
// a SharedHangup{LinkToken} event is delivered to that actor.
type Shared[A Hooks] struct {
	id        ID[A]
	LinkToken int64
	released  *atomic.Bool
}

// NewShared constructs a Shared handle and registers it with the
// Backend. Called by the scheduler package at actor-creation time, or
// by Shared.Clone.
func NewShared[A Hooks](backend Backend, raw RawID, linkToken int64) Shared[A] {
	backend.RetainShared(raw, linkToken)
	return Shared[A]{id: NewID[A](backend, raw), LinkToken: linkToken, released: &atomic.Bool{}}
}

// ID returns a weak handle to the same actor.
func (s Shared[A]) ID() ID[A] { return s.id }

// Clone returns a new, independent Shared handle to the same actor and
// LinkToken. The original and the clone must each be Released exactly
// once.
func (s Shared[A]) Clone() Shared[A] {
	return NewShared[A](s.id.backend, s.id.raw, s.LinkToken)
}

// Release drops this Shared handle. Safe to call at most once.
func (s Shared[A]) Release() {
	if s.released == nil || s.id.backend == nil {
		return
	}
	if s.released.CompareAndSwap(false, true) {
		s.id.backend.ReleaseShared(s.id.raw, s.LinkToken)
	}
}
