package flashd

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Reactor is a single-threaded event-dispatch loop: poll, fire per-channel
// handlers, drain the cross-goroutine task queue, expire timers. One
// instance runs on one dedicated goroutine for its entire lifetime (spec
// §4.4, §5). It is the Go-idiom equivalent of the teacher's eventloop: where
// gnet's eventloop_unix.go mixed TCP/UDP frame dispatch into the loop body,
// this Reactor only ever drives Channel.Dispatch and lets the HTTP
// Connection State own all protocol logic.
type Reactor struct {
	id  int
	mp  *Multiplexer
	log Logger

	wakeupFD int
	wakeupCh *Channel

	mu    sync.Mutex
	tasks []func() error

	looping int32
	quit    int32
}

// NewReactor builds a Reactor with its own epoll instance and wakeup
// descriptor, already registered for read interest.
func NewReactor(id int, log Logger) (*Reactor, error) {
	if log == nil {
		log = discardLogger{}
	}
	mp, err := newMultiplexer()
	if err != nil {
		return nil, errors.Wrap(err, "flashd: create multiplexer")
	}
	wfd, err := newWakeupFD()
	if err != nil {
		_ = mp.Close()
		return nil, errors.Wrap(err, "flashd: create wakeup descriptor")
	}
	r := &Reactor{id: id, mp: mp, log: log, wakeupFD: wfd}
	r.wakeupCh = &Channel{fd: wfd}
	r.wakeupCh.EnableReading()
	r.wakeupCh.SetReadHandler(r.handleWakeup)
	if err := r.mp.Register(r.wakeupCh, 0); err != nil {
		_ = mp.Close()
		_ = closeWakeupFD(wfd)
		return nil, errors.Wrap(err, "flashd: register wakeup descriptor")
	}
	return r, nil
}

func (r *Reactor) ID() int { return r.id }

func (r *Reactor) handleWakeup() error {
	return drainWakeupFD(r.wakeupFD)
}

// Run is the loop body; it blocks until Stop is called. Fatal poll errors
// (anything but a benign interrupt) end the loop and are returned to the
// caller, who is expected to be the goroutine that launched this Reactor.
func (r *Reactor) Run() error {
	atomic.StoreInt32(&r.looping, 1)
	defer atomic.StoreInt32(&r.looping, 0)
	for atomic.LoadInt32(&r.quit) == 0 {
		channels, err := r.mp.Poll(pollCap)
		if err != nil {
			return errors.Wrap(err, "flashd: poll")
		}
		for _, ch := range channels {
			ch.Dispatch()
		}
		r.drainTasks()
		r.mp.ExpireTimers()
	}
	return nil
}

func (r *Reactor) drainTasks() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for _, t := range tasks {
		if err := t(); err != nil {
			r.log.Errorf("flashd: queued task failed on reactor %d: %v", r.id, err)
		}
	}
}

// RunInLoop schedules f to run on this Reactor's own goroutine and is safe
// to call from any goroutine. Go gives no portable way to ask "am I
// currently the goroutine running Run()?" the way the original's
// std::thread::id comparison does (and the teacher, gnet, never attempts
// it either — every cross-goroutine call in its connection_unix.go funnels
// through poller.Trigger unconditionally). This collapses the spec's
// run_in_loop/queue_in_loop pair into the one thread-safe entry point; f
// is always queued and runs at the next task drain, including when the
// caller is already on the loop goroutine (as the HTTP Connection State's
// post-event hook is when it enqueues its close task).
func (r *Reactor) RunInLoop(f func() error) {
	r.mu.Lock()
	wasEmpty := len(r.tasks) == 0
	r.tasks = append(r.tasks, f)
	r.mu.Unlock()
	if wasEmpty {
		wakeWakeupFD(r.wakeupFD)
	}
}

func (r *Reactor) Register(ch *Channel, timeoutMs int) error {
	return r.mp.Register(ch, timeoutMs)
}

func (r *Reactor) Modify(ch *Channel, timeoutMs int) error {
	return r.mp.Modify(ch, timeoutMs)
}

func (r *Reactor) Unregister(ch *Channel) error {
	return r.mp.Unregister(ch)
}

// Stop requests the loop to exit after its current iteration and wakes it
// immediately so the request is not delayed up to pollCap.
func (r *Reactor) Stop() {
	atomic.StoreInt32(&r.quit, 1)
	wakeWakeupFD(r.wakeupFD)
}

func (r *Reactor) Close() error {
	_ = r.mp.Unregister(r.wakeupCh)
	if err := closeWakeupFD(r.wakeupFD); err != nil {
		return err
	}
	return r.mp.Close()
}

// startReactor launches a Reactor on its own goroutine and blocks the
// caller until it has been constructed and registered, mirroring the
// teacher's Reactor Thread startup synchronization (spec §3: "startup
// synchronization ensures the Reactor is constructed and running before
// its pointer is published").
func startReactor(id int, log Logger, wg *sync.WaitGroup) (*Reactor, error) {
	r, err := NewReactor(id, log)
	if err != nil {
		return nil, err
	}
	ready := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(ready)
		if err := r.Run(); err != nil {
			r.log.Errorf("flashd: reactor %d exited: %v", id, err)
		}
	}()
	<-ready
	// Give the goroutine scheduler a chance to actually enter Run() before
	// returning the pointer; Run()'s first Poll call is what matters for
	// correctness (the registry is already populated by NewReactor), so
	// this is a readiness nicety, not a correctness requirement.
	time.Sleep(0)
	return r, nil
}
