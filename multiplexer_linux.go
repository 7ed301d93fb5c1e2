package flashd

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pollCap bounds a single Poll call, matching spec §4.1 ("poll blocks up to
// a fixed bound (10 seconds) per call; if no events ready, it repolls" — the
// repoll happens naturally as the Reactor's own loop iterates again).
const pollCap = 10 * time.Second

// Multiplexer wraps epoll: it registers/modifies/deletes descriptor
// interest sets, blocks for ready events, and owns both the descriptor→
// Channel registry and the Timer Heap a Channel's timeout arms (spec §4.1,
// §4.3). It is mutated only by its owning Reactor, so no internal locking
// is needed.
type Multiplexer struct {
	epfd     int
	events   []unix.EpollEvent
	channels map[int]*Channel
	timers   *TimerHeap
}

func newMultiplexer() (*Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_create1")
	}
	return &Multiplexer{
		epfd:     epfd,
		events:   make([]unix.EpollEvent, 256),
		channels: make(map[int]*Channel, 256),
		timers:   newTimerHeap(),
	}, nil
}

// Register adds ch's descriptor to the epoll interest set. A non-zero
// timeoutMs arms a timer on ch's owning HTTP Connection State.
func (m *Multiplexer) Register(ch *Channel, timeoutMs int) error {
	ev := unix.EpollEvent{Events: ch.events, Fd: int32(ch.fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, ch.fd, &ev); err != nil {
		return errors.Wrapf(err, "epoll_ctl add fd=%d", ch.fd)
	}
	ch.lastEvents = ch.events
	m.channels[ch.fd] = ch
	m.attachTimer(ch, timeoutMs)
	return nil
}

// Modify updates ch's interest set, skipping the kernel call entirely when
// the desired mask already equals the last-registered mask (spec: "this
// coalesces redundant updates that arise because the state machine
// frequently requests the same interest set after each handled event").
func (m *Multiplexer) Modify(ch *Channel, timeoutMs int) error {
	if ch.events != ch.lastEvents {
		ev := unix.EpollEvent{Events: ch.events, Fd: int32(ch.fd)}
		if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, ch.fd, &ev); err != nil {
			return errors.Wrapf(err, "epoll_ctl mod fd=%d", ch.fd)
		}
		ch.lastEvents = ch.events
	}
	m.attachTimer(ch, timeoutMs)
	return nil
}

func (m *Multiplexer) attachTimer(ch *Channel, timeoutMs int) {
	if timeoutMs <= 0 || ch.owner == nil {
		return
	}
	ch.owner.timer.Cancel()
	ch.owner.timer = m.timers.Push(ch.owner, timeoutMs)
}

// Unregister removes ch from the interest set. It does not close ch.fd —
// that remains the owning HTTP Connection State's responsibility.
func (m *Multiplexer) Unregister(ch *Channel) error {
	delete(m.channels, ch.fd)
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, ch.fd, nil); err != nil {
		return errors.Wrapf(err, "epoll_ctl del fd=%d", ch.fd)
	}
	return nil
}

// Poll blocks for ready events up to pollCap and resolves each ready
// descriptor back to its Channel via the registry, stamping the returned
// mask onto it.
func (m *Multiplexer) Poll(timeout time.Duration) ([]*Channel, error) {
	if timeout > pollCap {
		timeout = pollCap
	}
	n, err := unix.EpollWait(m.epfd, m.events, int(timeout/time.Millisecond))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, errors.Wrap(err, "epoll_wait")
	}
	ready := make([]*Channel, 0, n)
	for i := 0; i < n; i++ {
		fd := int(m.events[i].Fd)
		ch, ok := m.channels[fd]
		if !ok {
			continue
		}
		ch.revents = m.events[i].Events
		ready = append(ready, ch)
	}
	return ready, nil
}

// ExpireTimers reaps the Timer Heap (spec §4.3/§4.4 loop-body step 4).
func (m *Multiplexer) ExpireTimers() {
	m.timers.Reap()
}

func (m *Multiplexer) Close() error {
	return unix.Close(m.epfd)
}
