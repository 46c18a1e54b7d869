package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/scheduler"
)

// multiTimeoutHost embeds MultiTimeout the way any real actor would:
// OnTimeout forwards straight to FireDue.
type multiTimeoutHost struct {
	actor.Base
	mt  *MultiTimeout
	ctx actor.Ctx

	mu     sync.Mutex
	seen   []int64
	onFire func(key int64) // optional, invoked from within FireDue for a given key
}

func newMultiTimeoutHost() *multiTimeoutHost {
	h := &multiTimeoutHost{mt: NewMultiTimeout()}
	h.mt.SetCallback(func(ctx actor.Ctx, key int64) {
		h.mu.Lock()
		h.seen = append(h.seen, key)
		h.mu.Unlock()
		if h.onFire != nil {
			h.onFire(key)
		}
	})
	return h
}

func (h *multiTimeoutHost) OnStart(ctx actor.Ctx)   { h.ctx = ctx }
func (h *multiTimeoutHost) OnTimeout(ctx actor.Ctx) { h.mt.FireDue(ctx) }
func (h *multiTimeoutHost) ctxFor() actor.Ctx       { return h.ctx }

func (h *multiTimeoutHost) firedKeys() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.seen))
	copy(out, h.seen)
	return out
}

func pumpUntil(t *testing.T, rt *scheduler.Runtime, deadline time.Duration, cond func() bool) {
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

func TestMultiTimeoutFiresKeysInDeadlineOrder(t *testing.T) {
	rt := scheduler.New(0, 0)
	h := newMultiTimeoutHost()
	own := scheduler.CreateActorOnScheduler[*multiTimeoutHost](rt, 0, "mt", func() *multiTimeoutHost { return h })
	defer own.Release()

	id := own.ID()
	scheduler.SendClosureLater(id, func(a *multiTimeoutHost) {
		now := time.Now()
		a.mt.SetTimeoutAt(a.ctxFor(), 1, now.Add(10*time.Millisecond))
		a.mt.SetTimeoutAt(a.ctxFor(), 2, now.Add(30*time.Millisecond))
		a.mt.SetTimeoutAt(a.ctxFor(), 3, now.Add(20*time.Millisecond))
	})

	pumpUntil(t, rt, 2*time.Second, func() bool { return len(h.firedKeys()) == 3 })
	require.Equal(t, []int64{1, 3, 2}, h.firedKeys())
}

// TestMultiTimeoutCancelFromWithinCallbackSuppressesSibling reproduces
// the "cancel a not-yet-fired sibling from inside another key's
// callback" scenario: keys 1 and 2 are due at the same instant, key 3
// slightly later. Canceling 2 from inside 1's callback must prevent 2
// from firing, while 3 still fires on schedule.
func TestMultiTimeoutCancelFromWithinCallbackSuppressesSibling(t *testing.T) {
	rt := scheduler.New(0, 0)
	h := newMultiTimeoutHost()
	own := scheduler.CreateActorOnScheduler[*multiTimeoutHost](rt, 0, "mt", func() *multiTimeoutHost { return h })
	defer own.Release()

	h.onFire = func(key int64) {
		if key == 1 {
			h.mt.CancelTimeout(h.ctxFor(), 2)
		}
	}

	id := own.ID()
	scheduler.SendClosureLater(id, func(a *multiTimeoutHost) {
		now := time.Now()
		a.mt.SetTimeoutAt(a.ctxFor(), 1, now.Add(10*time.Millisecond))
		a.mt.SetTimeoutAt(a.ctxFor(), 2, now.Add(10*time.Millisecond))
		a.mt.SetTimeoutAt(a.ctxFor(), 3, now.Add(40*time.Millisecond))
	})

	pumpUntil(t, rt, 2*time.Second, func() bool { return len(h.firedKeys()) == 2 })

	// Give any spurious firing of key 2 a chance to show up.
	end := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(end) {
		rt.RunMain(5 * time.Millisecond)
	}

	require.Equal(t, []int64{1, 3}, h.firedKeys())
}

func TestMultiTimeoutLenTracksLiveKeys(t *testing.T) {
	rt := scheduler.New(0, 0)
	h := newMultiTimeoutHost()
	own := scheduler.CreateActorOnScheduler[*multiTimeoutHost](rt, 0, "mt", func() *multiTimeoutHost { return h })
	defer own.Release()

	done := make(chan struct{})
	id := own.ID()
	scheduler.SendClosureLater(id, func(a *multiTimeoutHost) {
		a.mt.SetTimeoutIn(a.ctxFor(), 1, time.Hour)
		a.mt.SetTimeoutIn(a.ctxFor(), 2, time.Hour)
		require.Equal(t, 2, a.mt.Len())
		a.mt.CancelTimeout(a.ctxFor(), 1)
		require.Equal(t, 1, a.mt.Len())
		close(done)
	})

	pumpUntil(t, rt, time.Second, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	})
}
