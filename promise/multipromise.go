package promise

import "sync"

// MultiPromise hands out any number of child promises via NewChild and
// resolves its own output Future exactly once all of them have
// resolved: Ok if every child succeeded (or IgnoreErrors is set),
// otherwise the first error observed, in completion order. Grounded on
// original_source's MultiPromise.h (vector of pending promises plus a
// result slot, `ignore_errors` configurable).
type MultiPromise struct {
	mu           sync.Mutex
	outP         Promise[struct{}]
	total        int
	received     int
	firstErr     error
	ignoreErrors bool
	closed       bool
}

// NewMultiPromise constructs an empty MultiPromise and returns its
// output Future.
func NewMultiPromise() (*MultiPromise, Future[struct{}]) {
	outP, outF := New[struct{}]()
	return &MultiPromise{outP: outP}, outF
}

// SetIgnoreErrors configures whether a child error is suppressed,
// yielding Ok regardless of any failures.
func (m *MultiPromise) SetIgnoreErrors(ignore bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreErrors = ignore
}

// NewChild hands out one more promise this MultiPromise waits on.
func (m *MultiPromise) NewChild() Promise[struct{}] {
	m.mu.Lock()
	m.total++
	m.mu.Unlock()

	p, f := New[struct{}]()
	f.SetEvent(multiPromiseSink{m: m, f: f}, 0)
	return p
}

// PromiseCount reports how many children have been handed out so far.
func (m *MultiPromise) PromiseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *MultiPromise) onChildResolved(f Future[struct{}]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.received++
	if f.IsError() {
		err := f.MoveAsError()
		if m.firstErr == nil {
			m.firstErr = err
		}
	} else {
		f.MoveAsOk()
	}

	if m.closed || m.received < m.total {
		return
	}
	m.closed = true
	if m.firstErr != nil && !m.ignoreErrors {
		m.outP.SetError(m.firstErr)
	} else {
		m.outP.SetValue(struct{}{})
	}
}

type multiPromiseSink struct {
	m *MultiPromise
	f Future[struct{}]
}

func (s multiPromiseSink) Send(RawEvent) bool {
	s.m.onChildResolved(s.f)
	return true
}
