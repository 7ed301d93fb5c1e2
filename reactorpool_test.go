package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactorPoolFallsBackToBaseWhenEmpty(t *testing.T) {
	base := &Reactor{id: -1}
	pool := NewReactorPool(base, nil)

	for i := 0; i < 3; i++ {
		require.Same(t, base, pool.Next(), "Next() must return the base reactor when the pool has no workers")
	}
}

func TestReactorPoolRoundRobinsWorkers(t *testing.T) {
	base := &Reactor{id: -1}
	w0 := &Reactor{id: 0}
	w1 := &Reactor{id: 1}
	w2 := &Reactor{id: 2}
	pool := NewReactorPool(base, []*Reactor{w0, w1, w2})

	want := []*Reactor{w0, w1, w2, w0, w1, w2}
	for i, w := range want {
		assert.Same(t, w, pool.Next(), "Next() call %d", i)
	}
}

func TestReactorPoolAllIncludesBaseAndWorkers(t *testing.T) {
	base := &Reactor{id: -1}
	w0 := &Reactor{id: 0}
	pool := NewReactorPool(base, []*Reactor{w0})

	all := pool.All()
	require.Len(t, all, 2)
	assert.Same(t, base, all[0])
	assert.Same(t, w0, all[1])
}
