package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"

	"github.com/markInTheAbyss/tdactor-go/actor"
)

// actorInfo is the ActorInfo control block (C3): the scheduler-side
// bookkeeping shared by every Own/Shared/ID handle to one actor. It is
// reachable only through the Runtime's registry; handles never see it
// directly, only through the actor.Backend interface Runtime
// implements.
type actorInfo struct {
	raw        actor.RawID
	name       string
	schedIndex int
	hooks      actor.Hooks
	mailbox    *actor.Mailbox

	state      atomic.Int32 // actor.State
	ownerCount atomic.Int32

	sharedMu     sync.Mutex
	sharedCounts map[int64]int
}

func newActorInfo(raw actor.RawID, name string, schedIndex int, hooks actor.Hooks) *actorInfo {
	info := &actorInfo{
		raw:          raw,
		name:         name,
		schedIndex:   schedIndex,
		hooks:        hooks,
		mailbox:      actor.NewMailbox(),
		sharedCounts: make(map[int64]int),
	}
	info.state.Store(int32(actor.StateCreated))
	info.ownerCount.Store(1)
	return info
}

// crossMsg is one entry in a scheduler's inbound queue: an event
// destined for an actor hosted on that scheduler, submitted by any
// thread (including the home scheduler itself, for uniformity between
// same-scheduler and cross-scheduler sends per the spec).
type crossMsg struct {
	target actor.RawID
	ev     actor.Event
}

// inboxQueue is a mutex-protected FIFO of crossMsg, the scheduler's
// "cross-scheduler inbox" (C4). Grounded on the same gammazero/deque
// ring buffer the mailbox and ready queue use, with a plain mutex
// rather than a dedicated goroutine: a scheduler's own tick drains it
// synchronously, so there is no consumer-side concurrency to manage.
type inboxQueue struct {
	mu sync.Mutex
	q  deque.Deque[crossMsg]
}

// push appends msg and reports whether the queue transitioned from
// empty to non-empty (the caller must then wake the scheduler).
func (b *inboxQueue) push(msg crossMsg) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	wasEmpty := b.q.Len() == 0
	b.q.PushBack(msg)
	return wasEmpty
}

// drainAll removes and returns every currently queued message.
func (b *inboxQueue) drainAll() []crossMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.q.Len()
	if n == 0 {
		return nil
	}
	out := make([]crossMsg, n)
	for i := 0; i < n; i++ {
		out[i] = b.q.PopFront()
	}
	return out
}

// readyQueue is the scheduler's FIFO of actor ids with a non-empty
// mailbox awaiting a turn.
type readyQueue struct {
	mu sync.Mutex
	q  deque.Deque[actor.RawID]
}

func (r *readyQueue) push(id actor.RawID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.q.PushBack(id)
}

func (r *readyQueue) pop() (actor.RawID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.Len() == 0 {
		return 0, false
	}
	return r.q.PopFront(), true
}

func (r *readyQueue) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Len() == 0
}
