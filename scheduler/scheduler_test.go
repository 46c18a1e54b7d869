package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markInTheAbyss/tdactor-go/actor"
)

// recorderActor appends every event Kind it observes, in delivery
// order, under a mutex so tests can assert FIFO ordering across
// scheduler boundaries.
type recorderActor struct {
	actor.Base
	mu      sync.Mutex
	events  []actor.Event
	started chan struct{}
	stopped chan struct{}
}

func newRecorderActor() *recorderActor {
	return &recorderActor{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (a *recorderActor) OnStart(actor.Ctx) { close(a.started) }
func (a *recorderActor) OnClose(actor.Ctx) { close(a.stopped) }

func (a *recorderActor) OnEvent(ctx actor.Ctx, ev actor.Event) {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
}

func (a *recorderActor) recorded() []actor.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]actor.Event, len(a.events))
	copy(out, a.events)
	return out
}

// pumpMain drives scheduler 0 until cond reports true or the deadline
// elapses, failing the test on timeout.
func pumpMain(t *testing.T, rt *Runtime, deadline time.Duration, cond func() bool) {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if cond() {
			return
		}
		rt.RunMain(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCreateActorOnSchedulerRunsStartHookOnFirstTurn(t *testing.T) {
	rt := New(0, 0)
	rec := newRecorderActor()
	own := CreateActorOnScheduler[*recorderActor](rt, 0, "rec", func() *recorderActor { return rec })
	defer own.Release()

	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-rec.started:
			return true
		default:
			return false
		}
	})
}

func TestCreateActorOnSchedulerRejectsOutOfRangeIndex(t *testing.T) {
	rt := New(0, 0)
	require.Panics(t, func() {
		CreateActorOnScheduler[*recorderActor](rt, 5, "oob", func() *recorderActor { return newRecorderActor() })
	})
}

func TestCreateActorOnSchedulerPanicsAfterFinish(t *testing.T) {
	rt := New(0, 0)
	rt.Finish()
	require.Panics(t, func() {
		CreateActorOnScheduler[*recorderActor](rt, 0, "late", func() *recorderActor { return newRecorderActor() })
	})
}

func TestOwnReleaseStopsTheActor(t *testing.T) {
	rt := New(0, 0)
	rec := newRecorderActor()
	own := CreateActorOnScheduler[*recorderActor](rt, 0, "rec", func() *recorderActor { return rec })

	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-rec.started:
			return true
		default:
			return false
		}
	})

	own.Release()
	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-rec.stopped:
			return true
		default:
			return false
		}
	})
}

func TestSendEventPreservesFIFOOrderWithinOneActor(t *testing.T) {
	rt := New(0, 0)
	rec := newRecorderActor()
	own := CreateActorOnScheduler[*recorderActor](rt, 0, "rec", func() *recorderActor { return rec })
	defer own.Release()

	id := own.ID()
	for i := 1; i <= 20; i++ {
		SendEvent[*recorderActor](id, actor.RawEvent(uint64(i)))
	}

	pumpMain(t, rt, time.Second, func() bool {
		return len(rec.recorded()) >= 20
	})

	events := rec.recorded()
	require.Len(t, events, 20)
	for i, ev := range events {
		require.Equal(t, uint64(i+1), ev.Raw)
	}
}

func TestSendAcrossSchedulersDeliversToHomeScheduler(t *testing.T) {
	rt := New(1, 0)
	rt.Start()
	defer rt.Finish()

	rec := newRecorderActor()
	// Create on the non-main scheduler (index 1), then send from a
	// separate goroutine that is not scheduler 1's: a genuine
	// cross-thread hop into its inbox.
	own := CreateActorOnScheduler[*recorderActor](rt, 1, "rec", func() *recorderActor { return rec })
	defer own.Release()

	id := own.ID()
	go func() {
		for i := 1; i <= 10; i++ {
			SendEvent[*recorderActor](id, actor.RawEvent(uint64(i)))
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(rec.recorded()) < 10 {
		time.Sleep(5 * time.Millisecond)
	}

	events := rec.recorded()
	require.Len(t, events, 10)
	for i, ev := range events {
		require.Equal(t, uint64(i+1), ev.Raw)
	}
}

func TestIsFinishedDrainsNonMainSchedulersToo(t *testing.T) {
	rt := New(2, 0)
	rt.Start()

	rec := newRecorderActor()
	own := CreateActorOnScheduler[*recorderActor](rt, 1, "rec", func() *recorderActor { return rec })

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-rec.started:
		default:
			time.Sleep(5 * time.Millisecond)
			continue
		}
		break
	}

	own.Release()
	rt.Finish()

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rt.RunMain(5 * time.Millisecond)
		if rt.IsFinished() {
			return
		}
	}
	t.Fatal("IsFinished never became true with non-main schedulers running")
}

// timeoutActor arms its own timeout on start and records each firing.
type timeoutActor struct {
	actor.Base
	fired chan struct{}
	delay time.Duration
}

func (a *timeoutActor) OnStart(ctx actor.Ctx) { ctx.SetTimeoutIn(a.delay) }
func (a *timeoutActor) OnTimeout(actor.Ctx)   { close(a.fired) }

func TestActorTimeoutFiresViaSchedulerWheel(t *testing.T) {
	rt := New(0, 0)
	ta := &timeoutActor{fired: make(chan struct{}), delay: 20 * time.Millisecond}
	own := CreateActorOnScheduler[*timeoutActor](rt, 0, "timeout", func() *timeoutActor { return ta })
	defer own.Release()

	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-ta.fired:
			return true
		default:
			return false
		}
	})
}

// hangupActor records SharedHangup deliveries by token.
type hangupActor struct {
	actor.Base
	mu      sync.Mutex
	hangups []int64
}

func (a *hangupActor) OnSharedHangup(_ actor.Ctx, token int64) {
	a.mu.Lock()
	a.hangups = append(a.hangups, token)
	a.mu.Unlock()
}

func (a *hangupActor) tokens() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int64, len(a.hangups))
	copy(out, a.hangups)
	return out
}

func TestSharedHangupFiresWhenLastCloneReleased(t *testing.T) {
	rt := New(0, 0)
	ha := &hangupActor{}
	own := CreateActorOnScheduler[*hangupActor](rt, 0, "hangup", func() *hangupActor { return ha })
	defer own.Release()

	raw := own.ID().Raw()
	s1 := actor.NewShared[*hangupActor](rt, raw, 42)
	s2 := s1.Clone()

	s1.Release()
	end := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(end) {
		rt.RunMain(5 * time.Millisecond)
	}
	require.Empty(t, ha.tokens())

	s2.Release()
	pumpMain(t, rt, time.Second, func() bool {
		return len(ha.tokens()) == 1
	})
	require.Equal(t, []int64{42}, ha.tokens())
}

func TestIsFinishedOnlyAfterEveryActorDrains(t *testing.T) {
	rt := New(0, 0)
	rec := newRecorderActor()
	own := CreateActorOnScheduler[*recorderActor](rt, 0, "rec", func() *recorderActor { return rec })

	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-rec.started:
			return true
		default:
			return false
		}
	})

	require.False(t, rt.IsFinished())
	own.Release()
	rt.Finish()

	pumpMain(t, rt, time.Second, func() bool { return rt.IsFinished() })
}

// closureActor exposes a counter mutated only via SendClosureLater, to
// confirm closures run on the actor's own home scheduler turn rather
// than synchronously in the sender's goroutine.
type closureActor struct {
	actor.Base
	count atomic.Int32
}

func (a *closureActor) bump() { a.count.Add(1) }

func TestSendClosureLaterRunsAgainstConcreteActorType(t *testing.T) {
	rt := New(0, 0)
	ca := &closureActor{}
	own := CreateActorOnScheduler[*closureActor](rt, 0, "closure", func() *closureActor { return ca })
	defer own.Release()

	id := own.ID()
	for i := 0; i < 5; i++ {
		SendClosureLater[*closureActor](id, func(a *closureActor) { a.bump() })
	}

	pumpMain(t, rt, time.Second, func() bool { return ca.count.Load() == 5 })
}

// selfActor captures its own weak ID at OnStart and uses it to send
// itself a follow-up event, exercising Self end to end.
type selfActor struct {
	actor.Base
	self   actor.ID[*selfActor]
	pinged chan struct{}
}

func (a *selfActor) OnStart(ctx actor.Ctx) {
	a.self = Self[*selfActor](ctx)
	SendEvent[*selfActor](a.self, actor.RawEvent(7))
}

func (a *selfActor) OnEvent(_ actor.Ctx, ev actor.Event) {
	if ev.Kind == actor.KindRaw && ev.Raw == 7 {
		close(a.pinged)
	}
}

func TestSelfReturnsWorkingWeakHandle(t *testing.T) {
	rt := New(0, 0)
	sa := &selfActor{pinged: make(chan struct{})}
	own := CreateActorOnScheduler[*selfActor](rt, 0, "self", func() *selfActor { return sa })
	defer own.Release()

	pumpMain(t, rt, time.Second, func() bool {
		select {
		case <-sa.pinged:
			return true
		default:
			return false
		}
	})
	require.True(t, sa.self.Valid())
	require.True(t, sa.self.IsRunning())
}

// ringActor forwards the token it receives, decremented by one, to its
// successor in the ring, unless forwarding would send 0 — in which
// case it halts the chain instead.
type ringActor struct {
	actor.Base
	next    actor.ID[*ringActor]
	counter *atomic.Int64
	done    chan struct{}
}

func (a *ringActor) OnEvent(_ actor.Ctx, ev actor.Event) {
	if ev.Kind != actor.KindRaw {
		return
	}
	a.counter.Add(1)
	if ev.Raw == 1 {
		close(a.done)
		return
	}
	a.next.Send(actor.RawEvent(ev.Raw - 1))
}

// TestRingOfActorsForwardsTokenExactlyOnceEachHop reproduces the ring
// scenario: 504 actors wired into a ring, a token seeded at 100 hops
// its way around losing one per delivery, and the chain halts instead
// of ever delivering 0 — so exactly 100 events are ever delivered, and
// the runtime can then be brought to a full stop.
func TestRingOfActorsForwardsTokenExactlyOnceEachHop(t *testing.T) {
	const ringSize = 504
	const tokenStart = 100

	rt := New(0, 0)
	var counter atomic.Int64
	done := make(chan struct{})

	owns := make([]actor.Own[*ringActor], ringSize)
	ids := make([]actor.ID[*ringActor], ringSize)
	for i := 0; i < ringSize; i++ {
		owns[i] = CreateActorOnScheduler[*ringActor](rt, 0, fmt.Sprintf("ring-%d", i), func() *ringActor {
			return &ringActor{counter: &counter, done: done}
		})
		ids[i] = owns[i].ID()
	}

	for i := 0; i < ringSize; i++ {
		next := ids[(i+1)%ringSize]
		SendClosureLater[*ringActor](ids[i], func(a *ringActor) { a.next = next })
	}

	SendEvent[*ringActor](ids[0], actor.RawEvent(tokenStart))

	pumpMain(t, rt, 2*time.Second, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	})

	require.Equal(t, int64(tokenStart), counter.Load())

	for _, own := range owns {
		own.Release()
	}
	rt.Finish()
	pumpMain(t, rt, 2*time.Second, func() bool { return rt.IsFinished() })
}
