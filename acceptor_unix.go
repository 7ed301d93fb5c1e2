// Copyright 2019 Andy Pan. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flashd

import "golang.org/x/sys/unix"

// maxDescriptor is the admission-control ceiling on accepted file
// descriptor values (spec §4.6).
const maxDescriptor = 100000

// Acceptor listens on the bound TCP port from the main Reactor, drains the
// accept queue on each readiness notification, and hands each new
// connection to a worker Reactor chosen from the pool.
type Acceptor struct {
	fd        int
	channel   *Channel
	reactor   *Reactor
	pool      *ReactorPool
	log       Logger
	accessLog *accessLogPool
}

// NewAcceptor builds an Acceptor bound to listenFD, registered for read
// interest on reactor (the base/main Reactor).
func NewAcceptor(listenFD int, reactor *Reactor, pool *ReactorPool, log Logger, accessLog *accessLogPool) (*Acceptor, error) {
	if log == nil {
		log = discardLogger{}
	}
	a := &Acceptor{fd: listenFD, reactor: reactor, pool: pool, log: log, accessLog: accessLog}
	a.channel = &Channel{fd: listenFD}
	a.channel.EnableReading()
	a.channel.SetReadHandler(a.handleAccept)
	// The registration runs on reactor's own goroutine, the only one that
	// mutates its Multiplexer; the caller waits for its result.
	errc := make(chan error, 1)
	reactor.RunInLoop(func() error {
		err := reactor.Register(a.channel, 0)
		errc <- err
		return err
	})
	if err := <-errc; err != nil {
		return nil, err
	}
	return a, nil
}

// handleAccept repeatedly accepts until the kernel reports would-block,
// assigning each connection to a worker Reactor in round-robin order
// (spec §4.6).
func (a *Acceptor) handleAccept() error {
	for {
		nfd, _, err := unix.Accept(a.fd)
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			if err == unix.EINTR {
				continue
			}
			a.log.Errorf("flashd: accept: %v", err)
			return nil
		}

		if nfd >= maxDescriptor {
			a.log.Errorf("flashd: fd=%d: %v", nfd, errDescriptorFull)
			_ = unix.Close(nfd)
			continue
		}
		if err := setNonblocking(nfd); err != nil {
			_ = unix.Close(nfd)
			continue
		}
		if err := setNoDelay(nfd); err != nil {
			_ = unix.Close(nfd)
			continue
		}

		worker := a.pool.Next()
		conn := newHTTPConn(worker, nfd, a.log, a.accessLog)
		worker.RunInLoop(conn.open)
	}
}
