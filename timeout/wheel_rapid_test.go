package timeout

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestWheelDrainDueIsExactlyTheLiveDueSet is a property test: against
// any sequence of SetTimeoutAt/CancelTimeout operations on random keys
// and offsets, DrainDue(now) must return exactly the set of keys whose
// most recent SetTimeoutAt call (a) was not followed by a Cancel and
// (b) has a deadline <= now — no more, no less.
func TestWheelDrainDueIsExactlyTheLiveDueSet(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := New[int]()
		base := time.Now()
		live := make(map[int]time.Duration) // key -> offset from base, if live

		keyGen := rapid.IntRange(0, 7)
		offsetGen := rapid.IntRange(0, 100) // milliseconds

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			key := keyGen.Draw(rt, "key")
			if rapid.Bool().Draw(rt, "cancel") {
				w.CancelTimeout(key)
				delete(live, key)
				continue
			}
			offMillis := offsetGen.Draw(rt, "offset")
			off := time.Duration(offMillis) * time.Millisecond
			w.SetTimeoutAt(key, base.Add(off))
			live[key] = off
		}

		cutoffMillis := rapid.IntRange(0, 100).Draw(rt, "cutoff")
		cutoff := base.Add(time.Duration(cutoffMillis) * time.Millisecond)

		var wantDue []int
		var wantLen int
		for k, off := range live {
			wantLen++
			if off <= cutoff.Sub(base) {
				wantDue = append(wantDue, k)
			}
		}

		require.Equal(rt, wantLen, w.Len())

		got := w.DrainDue(cutoff)
		sort.Ints(got)
		sort.Ints(wantDue)
		require.Equal(rt, wantDue, got)

		for _, k := range got {
			delete(live, k)
		}
		require.Equal(rt, len(live), w.Len())
	})
}
