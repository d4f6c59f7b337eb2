package clock

import (
	"container/heap"
	"fmt"
)

// Queue is a deterministic Scheduler. Time only moves when the owner calls
// Advance or RunUntil and events fire in time order (ties in the order they
// were scheduled) with Now reporting the event's own time.
type Queue struct {
	now     Time
	rate    uint64
	seq     uint64
	pending eventHeap
}

var _ Scheduler = (*Queue)(nil)

// NewQueue returns a Queue at time 0 running at rate ticks per second.
func NewQueue(rate uint64) *Queue {
	return &Queue{rate: rate}
}

// Now implements Scheduler.
func (q *Queue) Now() Time {
	return q.now
}

// Rate implements Scheduler.
func (q *Queue) Rate() uint64 {
	return q.rate
}

// Schedule implements Scheduler.
func (q *Queue) Schedule(at Time, fn func()) Event {
	if at < q.now {
		at = q.now
	}
	e := &queued{q: q, at: at, seq: q.seq, fn: fn, index: -1}
	q.seq++
	heap.Push(&q.pending, e)
	return e
}

// Pending returns the number of events waiting to fire.
func (q *Queue) Pending() int {
	return len(q.pending)
}

// Next returns the time of the earliest pending event. ok is false if there are none.
func (q *Queue) Next() (at Time, ok bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	return q.pending[0].at, true
}

// Advance moves time forward n ticks firing everything due along the way.
func (q *Queue) Advance(n uint64) {
	q.RunUntil(q.now + Time(n))
}

// RunUntil moves time forward to t firing every event due at or before t,
// including ones scheduled by callbacks as long as they fall inside the window.
// Moving backwards is a no-op.
func (q *Queue) RunUntil(t Time) {
	if t < q.now {
		return
	}
	for len(q.pending) > 0 && q.pending[0].at <= t {
		e := heap.Pop(&q.pending).(*queued)
		q.now = e.at
		e.fired = true
		e.fn()
	}
	q.now = t
}

func (q *Queue) String() string {
	return fmt.Sprintf("now: %d rate: %d pending: %d", q.now, q.rate, len(q.pending))
}

type queued struct {
	q         *Queue
	at        Time
	seq       uint64
	fn        func()
	index     int
	fired     bool
	cancelled bool
}

// Cancel implements Event.
func (e *queued) Cancel() {
	if e.fired || e.cancelled {
		return
	}
	e.cancelled = true
	if e.index >= 0 {
		heap.Remove(&e.q.pending, e.index)
	}
}

type eventHeap []*queued

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x interface{}) {
	e := x.(*queued)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
