package flashd

import "golang.org/x/sys/unix"

// Event masks a Channel can carry as interest or returned-readiness bits.
// Edge-triggered mode (EPOLLET) is folded into EventRead/EventWrite so a
// Channel never forgets to ask for it.
const (
	EventRead  = unix.EPOLLIN | unix.EPOLLPRI | unix.EPOLLRDHUP | unix.EPOLLET
	EventWrite = unix.EPOLLOUT | unix.EPOLLET
	EventNone  = 0
)

// noLastEvents marks a freshly constructed Channel as never having been
// registered, so the first Modify always issues a kernel update even if the
// caller's desired mask happens to be zero.
const noLastEvents = ^uint32(0)

// Channel is a descriptor's event-dispatch record: an interest mask, a
// returned-readiness mask, and four callback slots. It does not own the
// descriptor — the owning HTTP Connection State closes fd, never Channel.
type Channel struct {
	fd         int
	events     uint32
	revents    uint32
	lastEvents uint32

	owner *HTTPConn

	readHandler  func() error
	writeHandler func() error
	errorHandler func() error
	connHandler  func() error
}

// NewChannel returns a Channel for fd with no interest registered yet.
func NewChannel(fd int, owner *HTTPConn) *Channel {
	return &Channel{fd: fd, owner: owner, lastEvents: noLastEvents}
}

func (c *Channel) Fd() int          { return c.fd }
func (c *Channel) Events() uint32   { return c.events }
func (c *Channel) Returned() uint32 { return c.revents }

func (c *Channel) EnableReading()  { c.events |= EventRead }
func (c *Channel) EnableWriting()  { c.events |= EventWrite }
func (c *Channel) DisableReading() { c.disable(EventRead) }
func (c *Channel) DisableWriting() { c.disable(EventWrite) }

func (c *Channel) IsReading() bool   { return c.events&(EventRead&^unix.EPOLLET) != 0 }
func (c *Channel) IsWriting() bool   { return c.events&(EventWrite&^unix.EPOLLET) != 0 }
func (c *Channel) IsNoneEvent() bool { return !c.IsReading() && !c.IsWriting() }

// disable clears the interest bits of mask, keeping EPOLLET while any other
// interest remains.
func (c *Channel) disable(mask uint32) {
	c.events &^= mask &^ unix.EPOLLET
	if c.IsNoneEvent() {
		c.events = EventNone
	}
}

func (c *Channel) SetReadHandler(f func() error)  { c.readHandler = f }
func (c *Channel) SetWriteHandler(f func() error) { c.writeHandler = f }
func (c *Channel) SetErrorHandler(f func() error) { c.errorHandler = f }
func (c *Channel) SetConnHandler(f func() error)  { c.connHandler = f }

// Dispatch fires the handlers for the readiness bits most recently stamped
// onto revents by the multiplexer's Poll, in the fixed order spec'd for a
// Channel: hang-up short-circuits, then error short-circuits, then read,
// then write, then the post-event hook always runs last. The interest mask
// is cleared first so every handler (including the post-event hook) must
// re-assert whatever interest it still wants.
func (c *Channel) Dispatch() {
	c.events = 0

	if c.revents&unix.EPOLLHUP != 0 && c.revents&unix.EPOLLIN == 0 {
		return
	}
	if c.revents&unix.EPOLLERR != 0 {
		if c.errorHandler != nil {
			_ = c.errorHandler()
		}
		return
	}
	if c.revents&(unix.EPOLLIN|unix.EPOLLPRI|unix.EPOLLRDHUP) != 0 && c.readHandler != nil {
		_ = c.readHandler()
	}
	if c.revents&unix.EPOLLOUT != 0 && c.writeHandler != nil {
		_ = c.writeHandler()
	}
	if c.connHandler != nil {
		_ = c.connHandler()
	}
}
