package actor

import (
	"sync"

	"github.com/gammazero/deque"
)

// Mailbox is the per-actor Event queue (component C1). A Runtime may
// host many thousands of actors, so every actor's Mailbox is a plain
// mutex-protected
// gammazero/deque ring buffer with no goroutine of its own: Enqueue is
// callable from any thread, Drain is only ever called by the actor's
// home scheduler from inside its own tick.
type Mailbox struct {
	mu     sync.Mutex
	q      deque.Deque[Event]
	closed bool
}

// NewMailbox returns an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends ev to the mailbox. Returns true if the mailbox
// transitioned from empty to non-empty (the caller must then notify
// the home scheduler). Events enqueued after Close are dropped, except
// KindStop which is idempotent and always accepted so a late Stop
// never gets silently lost.
func (m *Mailbox) Enqueue(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed && ev.Kind != KindStop {
		return false
	}
	wasEmpty := m.q.Len() == 0
	m.q.PushBack(ev)
	return wasEmpty
}

// Drain removes and returns up to limit events in FIFO order. Must
// only be called by the mailbox's home scheduler. limit <= 0 means
// "no limit".
func (m *Mailbox) Drain(limit int) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.q.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = m.q.PopFront()
	}
	return out
}

// Len reports the number of events currently queued.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.Len()
}

// Close marks the mailbox as no longer accepting events other than
// KindStop. Already-queued events are left in place for Drain to
// deliver.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
