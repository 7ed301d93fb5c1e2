// Copyright 2019 Andy Pan. All rights reserved.
// Copyright 2018 Joshua J Baker. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flashd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Server wires the Acceptor, the base (acceptor) Reactor, and the worker
// Reactor Pool together and drives them until Shutdown is called.
type Server struct {
	opts Options
	log  Logger

	listenFD int
	base     *Reactor
	pool     *ReactorPool
	acceptor *Acceptor
	accLog   *accessLogPool

	wg sync.WaitGroup

	sigCh chan os.Signal
}

// Serve validates opts, binds the listening socket, brings up the worker
// Reactor Pool and the acceptor Reactor, and blocks until a shutdown signal
// (SIGINT/SIGTERM) arrives. Fatal setup failures (spec §7) are returned,
// not logged-and-continued.
func Serve(opts Options, log Logger) error {
	if opts.NumReactors <= 0 {
		return errors.Errorf("flashd: NumReactors must be positive, got %d", opts.NumReactors)
	}
	if log == nil {
		log = discardLogger{}
	}

	// A half-closed peer must produce an error return from write, not
	// SIGPIPE (spec §5 "Signal handling").
	signal.Ignore(syscall.SIGPIPE)

	listenFD, err := listenTCP(opts.Port)
	if err != nil {
		return errors.Wrap(err, "flashd: listen")
	}

	srv := &Server{opts: opts, log: log, listenFD: listenFD}

	accLog, err := newAccessLogPool(opts.NumReactors, log)
	if err != nil {
		_ = unix.Close(listenFD)
		return err
	}
	srv.accLog = accLog

	base, err := startReactor(-1, log, &srv.wg)
	if err != nil {
		accLog.Release()
		_ = unix.Close(listenFD)
		return errors.Wrap(err, "flashd: start base reactor")
	}
	srv.base = base

	workers := make([]*Reactor, 0, opts.NumReactors)
	for i := 0; i < opts.NumReactors; i++ {
		w, err := startReactor(i, log, &srv.wg)
		if err != nil {
			srv.shutdownPartial(workers)
			return errors.Wrap(err, "flashd: start worker reactor")
		}
		workers = append(workers, w)
	}
	srv.pool = NewReactorPool(base, workers)

	acceptor, err := NewAcceptor(listenFD, base, srv.pool, log, accLog)
	if err != nil {
		srv.shutdownPartial(workers)
		return errors.Wrap(err, "flashd: start acceptor")
	}
	srv.acceptor = acceptor

	srv.sigCh = make(chan os.Signal, 1)
	signal.Notify(srv.sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("flashd: listening on port %d with %d worker reactors", opts.Port, opts.NumReactors)
	<-srv.sigCh
	return srv.Shutdown()
}

func (srv *Server) shutdownPartial(workers []*Reactor) {
	srv.base.Stop()
	for _, w := range workers {
		w.Stop()
	}
	srv.wg.Wait()
	_ = unix.Close(srv.listenFD)
	srv.accLog.Release()
}

// Shutdown stops every Reactor (base and workers), waits for their
// goroutines to exit, and releases the listening socket and the
// access-log pool. Serve calls it once a shutdown signal arrives; Serve
// does not hand its Server to the caller.
func (srv *Server) Shutdown() error {
	for _, r := range srv.pool.All() {
		r.Stop()
	}
	srv.wg.Wait()
	srv.accLog.Release()
	return unix.Close(srv.listenFD)
}
