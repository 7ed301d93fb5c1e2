package flashd

import (
	"container/heap"
	"time"
)

// TimerNode is an expiration entry guarding one HTTP Connection State. The
// Timer Heap holds the strong reference in conn; the connection itself only
// ever holds a plain (non-owning, by convention) pointer back to its node so
// it can cancel by flipping deleted without scanning the heap.
type TimerNode struct {
	expiryMs int64
	deleted  bool
	conn     *HTTPConn
	index    int
}

// Cancel flags the node deleted and drops its strong reference to conn.
// Reap will skip it (and, since no other reference remains, the
// connection's own refcount drops) the next time it reaches the top of the
// heap.
func (n *TimerNode) Cancel() {
	if n == nil {
		return
	}
	n.deleted = true
	n.conn = nil
}

// timerQueue is the underlying container/heap.Interface implementation: a
// min-heap ordered by ascending expiry.
type timerQueue []*TimerNode

func (q timerQueue) Len() int            { return len(q) }
func (q timerQueue) Less(i, j int) bool  { return q[i].expiryMs < q[j].expiryMs }
func (q timerQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *timerQueue) Push(x interface{}) {
	n := x.(*TimerNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*q = old[:n-1]
	return node
}

// TimerHeap is a lazy-deletion min-heap of expiration nodes, owned
// exclusively by the Reactor whose Multiplexer embeds it (spec: "no random
// access; no direct deletion").
type TimerHeap struct {
	q timerQueue
}

func newTimerHeap() *TimerHeap {
	return &TimerHeap{}
}

// clockStart anchors nowMs to the monotonic clock reading taken at process
// start.
var clockStart = time.Now()

// nowMs returns the milliseconds elapsed on the monotonic clock since
// process start. Deliberately not the original's seconds-mod-10000
// reduction (which wraps every ~2.77 hours per spec.md's own Design Notes)
// — see DESIGN.md for the Open Question resolution.
func nowMs() int64 {
	return int64(time.Since(clockStart) / time.Millisecond)
}

// Push inserts a new node expiring timeoutMs from now and returns it so the
// caller (a Channel's owning connection) can hold the weak back-reference.
func (h *TimerHeap) Push(conn *HTTPConn, timeoutMs int) *TimerNode {
	node := &TimerNode{expiryMs: nowMs() + int64(timeoutMs), conn: conn}
	heap.Push(&h.q, node)
	return node
}

// Reap repeatedly inspects the minimum node, popping it while it is either
// deleted or expired, and stops at the first live, unexpired node. Popping
// a live node closes the connection it guards.
func (h *TimerHeap) Reap() {
	now := nowMs()
	for h.q.Len() > 0 {
		top := h.q[0]
		if top.deleted {
			heap.Pop(&h.q)
			continue
		}
		if top.expiryMs > now {
			return
		}
		heap.Pop(&h.q)
		conn := top.conn
		top.conn = nil
		if conn != nil {
			conn.closeForTimeout()
		}
	}
}

func (h *TimerHeap) Len() int { return h.q.Len() }
