package flashd

import "sync/atomic"

// ReactorPool holds a fixed set of worker Reactors and hands them out to
// the Acceptor in round-robin order, falling back to a base Reactor when
// the pool is empty (spec §3 Reactor Pool, §4.6 Acceptor).
type ReactorPool struct {
	base    *Reactor
	workers []*Reactor
	next    uint64 // single-writer counter, mutated only by the acceptor reactor
}

// NewReactorPool wires base as the fallback and workers as the round-robin
// set.
func NewReactorPool(base *Reactor, workers []*Reactor) *ReactorPool {
	return &ReactorPool{base: base, workers: workers}
}

// Next returns the next worker Reactor in round-robin order, or the base
// Reactor if the pool holds no workers.
func (p *ReactorPool) Next() *Reactor {
	if len(p.workers) == 0 {
		return p.base
	}
	i := atomic.AddUint64(&p.next, 1) - 1
	return p.workers[i%uint64(len(p.workers))]
}

// All returns the base Reactor followed by every worker, for shutdown
// iteration.
func (p *ReactorPool) All() []*Reactor {
	all := make([]*Reactor, 0, len(p.workers)+1)
	all = append(all, p.base)
	all = append(all, p.workers...)
	return all
}
