package coordinator

import (
	"github.com/markInTheAbyss/tdactor-go/actor"
	"github.com/markInTheAbyss/tdactor-go/promise"
	"github.com/markInTheAbyss/tdactor-go/scheduler"
)

// MergeFunc performs the actual batched request for a set of query
// ids, resolving reply once the batch completes.
type MergeFunc func(queryIDs []int64, reply promise.Promise[struct{}])

// QueryMerger deduplicates and batches concurrent homogeneous requests
// identified by an int64 id. At most MaxConcurrentQueryCount merge
// calls are outstanding at once; each carries 1..MaxMergedQueryCount
// distinct ids. Grounded on original_source's QueryMerger.h/.cpp:
// add_query/loop/send_query/on_get_query_result map directly onto
// AddQuery/loop/sendQuery/OnEvent below.
type QueryMerger struct {
	actor.Base

	maxConcurrent int
	maxMerged     int
	mergeFn       MergeFunc

	self       actor.ID[*QueryMerger]
	queryCount int
	pending    []int64
	queries    map[int64][]promise.Promise[struct{}]
	nextTag    uint64
	batches    map[uint64]queryBatch
}

type queryBatch struct {
	ids    []int64
	future promise.Future[struct{}]
}

// NewQueryMerger constructs a QueryMerger actor body ready to be
// handed to scheduler.CreateActor (or CreateQueryMerger below).
func NewQueryMerger(maxConcurrentQueryCount, maxMergedQueryCount int, mergeFn MergeFunc) *QueryMerger {
	return &QueryMerger{
		maxConcurrent: maxConcurrentQueryCount,
		maxMerged:     maxMergedQueryCount,
		mergeFn:       mergeFn,
		queries:       make(map[int64][]promise.Promise[struct{}]),
		batches:       make(map[uint64]queryBatch),
	}
}

// CreateQueryMerger creates a QueryMerger actor on src's scheduler.
func CreateQueryMerger(rt *scheduler.Runtime, src scheduler.SchedulerSource, name string, maxConcurrentQueryCount, maxMergedQueryCount int, mergeFn MergeFunc) actor.Own[*QueryMerger] {
	return scheduler.CreateActor[*QueryMerger](rt, src, name, func() *QueryMerger {
		return NewQueryMerger(maxConcurrentQueryCount, maxMergedQueryCount, mergeFn)
	})
}

func (q *QueryMerger) OnStart(ctx actor.Ctx) {
	q.self = scheduler.Self[*QueryMerger](ctx)
}

// AddQuery attaches reply to id's wait set, enqueueing id for batching
// if it is not already in flight or pending. Must run on this actor's
// own scheduler; other actors reach it through SendAddQuery.
func (q *QueryMerger) AddQuery(id int64, reply promise.Promise[struct{}]) {
	q.queries[id] = append(q.queries[id], reply)
	if len(q.queries[id]) != 1 {
		return // duplicate query id, its promise just waits with the others
	}
	q.pending = append(q.pending, id)
	q.loop()
}

// SendAddQuery lets any actor (or the main guard) hand a query to a
// QueryMerger it does not own, deferred through the merger's mailbox.
func SendAddQuery(id actor.ID[*QueryMerger], queryID int64, reply promise.Promise[struct{}]) {
	scheduler.SendClosureLater(id, func(qm *QueryMerger) { qm.AddQuery(queryID, reply) })
}

func (q *QueryMerger) loop() {
	if q.queryCount == q.maxConcurrent {
		return
	}
	var batch []int64
	for len(q.pending) > 0 {
		id := q.pending[0]
		q.pending = q.pending[1:]
		batch = append(batch, id)
		if len(batch) == q.maxMerged {
			q.sendQuery(batch)
			batch = nil
			if q.queryCount == q.maxConcurrent {
				return
			}
		}
	}
	if len(batch) > 0 {
		q.sendQuery(batch)
	}
}

func (q *QueryMerger) sendQuery(ids []int64) {
	q.queryCount++
	p, f := promise.New[struct{}]()
	q.nextTag++
	tag := q.nextTag
	q.batches[tag] = queryBatch{ids: ids, future: f}
	scheduler.BindFuture(f, q.self, tag)
	q.mergeFn(ids, p)
}

// OnEvent recognizes the Raw wakeup a completed batch posts and fans
// its result out to every promise attached to any id in that batch.
func (q *QueryMerger) OnEvent(ctx actor.Ctx, ev actor.Event) {
	if ev.Kind != actor.KindRaw {
		return
	}
	batch, ok := q.batches[ev.Raw]
	if !ok {
		return
	}
	delete(q.batches, ev.Raw)
	q.queryCount--

	var resultErr error
	if batch.future.IsError() {
		resultErr = batch.future.MoveAsError()
	} else {
		batch.future.MoveAsOk()
	}

	for _, id := range batch.ids {
		promises := q.queries[id]
		delete(q.queries, id)
		for _, p := range promises {
			if resultErr != nil {
				p.SetError(resultErr)
			} else {
				p.SetValue(struct{}{})
			}
		}
	}
	q.loop()
}
