package promise

import "sync"

// Join returns a Future[struct{}] that resolves as soon as every
// future in futures has any resolution (success or error) — the
// spec's join(p1, p2, ...). It does not consume the children: each
// remains independently readable via MoveAsOk/MoveAsError.
func Join[T any](futures ...Future[T]) Future[struct{}] {
	outP, outF := New[struct{}]()
	if len(futures) == 0 {
		outP.SetValue(struct{}{})
		return outF
	}

	var (
		mu        sync.Mutex
		remaining = len(futures)
	)
	for _, f := range futures {
		f.SetEvent(joinSink{onResolve: func() {
			mu.Lock()
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				outP.SetValue(struct{}{})
			}
		}}, 0)
	}
	return outF
}

type joinSink struct {
	onResolve func()
}

func (j joinSink) Send(RawEvent) bool {
	j.onResolve()
	return true
}
