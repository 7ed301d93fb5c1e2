package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerHeapOrdersByExpiry(t *testing.T) {
	h := newTimerHeap()
	n1 := h.Push(nil, 100)
	n2 := h.Push(nil, 10)
	n3 := h.Push(nil, 50)

	require.Equal(t, n2, h.q[0], "the soonest-expiring node must be at the top of the heap")
	_ = n1
	_ = n3
}

func TestTimerHeapCancelSkipsTombstone(t *testing.T) {
	h := newTimerHeap()
	n := h.Push(nil, -1000) // already expired
	n.Cancel()

	assert.True(t, n.deleted, "Cancel did not mark the node deleted")
	assert.Nil(t, n.conn, "Cancel did not drop the strong reference")

	h.Reap()
	assert.Equal(t, 0, h.Len(), "Reap should discard a cancelled+expired node")
}

func TestTimerHeapCancelOnNilIsNoop(t *testing.T) {
	var n *TimerNode
	require.NotPanics(t, func() { n.Cancel() })
}

func TestTimerHeapReapLeavesUnexpiredNodes(t *testing.T) {
	h := newTimerHeap()
	h.Push(nil, 60*1000)
	h.Reap()
	assert.Equal(t, 1, h.Len(), "Reap must not remove a node that has not expired yet")
}
