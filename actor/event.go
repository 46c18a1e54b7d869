package actor

// Kind discriminates the payload carried by an Event. Go has no sum
// types; this is the idiomatic substitute — a tag plus the matching
// field of Event is valid.
type Kind int

const (
	// KindStart is delivered once, first, after an actor is created.
	KindStart Kind = iota
	// KindStop requests an actor wind down; idempotent.
	KindStop
	// KindHangup notifies an actor that a dependency it held a Shared
	// handle to is gone.
	KindHangup
	// KindSharedHangup notifies an actor that the last Shared handle
	// carrying LinkToken was dropped.
	KindSharedHangup
	// KindTimeout is delivered by the owning scheduler's timeout wheel.
	KindTimeout
	// KindRaw carries an opaque tag, used by Promise/Future binding and
	// by actors re-posting continuations to themselves.
	KindRaw
	// KindClosure carries a closure to run against the actor's
	// concrete type.
	KindClosure
	// KindCustom carries a user-supplied Handler.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "Start"
	case KindStop:
		return "Stop"
	case KindHangup:
		return "Hangup"
	case KindSharedHangup:
		return "SharedHangup"
	case KindTimeout:
		return "Timeout"
	case KindRaw:
		return "Raw"
	case KindClosure:
		return "Closure"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Handler is the payload of a KindCustom event: arbitrary user logic
// run against the hosting actor's capability set on its home
// scheduler.
type Handler interface {
	Handle(h Hooks)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(h Hooks)

// Handle implements Handler.
func (f HandlerFunc) Handle(h Hooks) { f(h) }

// Event is a single message directed at one actor's mailbox. Exactly
// one of the payload fields is meaningful, selected by Kind.
type Event struct {
	Kind Kind

	// LinkToken is set for KindSharedHangup.
	LinkToken int64
	// Raw is set for KindRaw: an opaque tag chosen by the sender,
	// commonly a Future's tag or a self-continuation marker.
	Raw uint64
	// Closure is set for KindClosure: it is invoked with the receiving
	// actor's concrete Hooks value type-erased to `any`; callers obtain
	// type-safety through the generic SendClosure helper that builds
	// this closure from a typed func(A).
	Closure func(a any)
	// Custom is set for KindCustom.
	Custom Handler
}

// StartEvent is the single KindStart event every actor receives first.
func StartEvent() Event { return Event{Kind: KindStart} }

// StopEvent is the event enqueued on an actor's own close.
func StopEvent() Event { return Event{Kind: KindStop} }

// HangupEvent notifies an actor a dependency has gone away.
func HangupEvent() Event { return Event{Kind: KindHangup} }

// SharedHangupEvent notifies an actor that a Shared handle it issued
// with the given token was fully dropped.
func SharedHangupEvent(token int64) Event {
	return Event{Kind: KindSharedHangup, LinkToken: token}
}

// TimeoutEvent is delivered by the scheduler's timeout wheel.
func TimeoutEvent() Event { return Event{Kind: KindTimeout} }

// RawEvent carries an opaque tag, most commonly a Future binding.
func RawEvent(tag uint64) Event { return Event{Kind: KindRaw, Raw: tag} }

// ClosureEvent wraps fn so it can be posted through the generic Event
// mailbox; fn must type-assert its argument to the actor's concrete
// type. Use the generic SendClosure helper instead of calling this
// directly from user code.
func ClosureEvent(fn func(a any)) Event { return Event{Kind: KindClosure, Closure: fn} }

// CustomEvent wraps an arbitrary Handler.
func CustomEvent(h Handler) Event { return Event{Kind: KindCustom, Custom: h} }
