// Package flashd implements a high-concurrency HTTP/1.x static-file server
// built on a multi-reactor, edge-triggered epoll core: one acceptor reactor
// and a pool of worker reactors, each single-threaded and pinned to its own
// goroutine, each owning its own epoll instance.
package flashd
