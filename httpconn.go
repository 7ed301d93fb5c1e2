package flashd

import (
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"
)

// connPhase tracks the connection lifecycle (spec §3: Connected,
// Disconnecting, Disconnected).
type connPhase int

const (
	phaseConnected connPhase = iota
	phaseDisconnecting
	phaseDisconnected
)

// parseState is the top-level HTTP Connection State machine (spec §4.5).
type parseState int

const (
	stateParseRequestLine parseState = iota
	stateParseHeaders
	stateReceiveBody
	stateAnalyze
	stateFinished
)

const (
	// defaultTimeoutMs is the idle timeout armed when a connection is first
	// registered, and while a connection not marked keep-alive has output
	// pending. A connection not marked keep-alive that waits for input is
	// re-armed with half of keepAliveTimeoutMs instead.
	defaultTimeoutMs = 2 * 1000
	// keepAliveTimeoutMs is the idle timeout once a request has asked for
	// Keep-Alive, and the value advertised in the Keep-Alive: timeout=...
	// response header.
	keepAliveTimeoutMs = 5 * 60 * 1000
)

// HTTPConn is the per-connection HTTP parse/respond state machine: request
// line parser, header parser, optional body collector, response generator,
// keep-alive logic, timer back-reference, and buffer management (spec
// §4.5). It exclusively owns its Channel and descriptor; the descriptor is
// closed by Close, which runs when the connection's timer expires or from
// the close task the post-event hook enqueues.
type HTTPConn struct {
	reactor *Reactor
	channel *Channel
	fd      int
	log     Logger

	in  bytebufferpool.ByteBuffer
	out bytebufferpool.ByteBuffer

	error bool
	phase connPhase

	method  httpMethod
	version httpVersion

	state  parseState
	hState headerState

	nowReadPos int
	keyStart   int
	valStart   int
	curKey     string
	curVal     string

	requestPath string
	keepAlive   bool
	headers     map[string]string

	// timer is the weak back-reference to the Timer Heap node guarding
	// this connection; the Timer Heap holds the strong reference the other
	// way.
	timer *TimerNode

	// accessLog is optional; when set, analyze submits a one-line access
	// record to it instead of logging synchronously on the reactor
	// goroutine.
	accessLog *accessLogPool
}

// newHTTPConn constructs a connection state bound to fd on reactor, with
// its Channel wired but not yet registered (the caller — the Acceptor's
// registration task, running on reactor's own goroutine — registers it).
func newHTTPConn(reactor *Reactor, fd int, log Logger, accessLog *accessLogPool) *HTTPConn {
	c := &HTTPConn{reactor: reactor, fd: fd, log: log, phase: phaseConnected, accessLog: accessLog}
	c.channel = NewChannel(fd, c)
	c.channel.SetReadHandler(c.handleRead)
	c.channel.SetWriteHandler(c.handleWrite)
	c.channel.SetErrorHandler(c.handleError)
	c.channel.SetConnHandler(c.handlePostEvent)
	return c
}

// open registers the channel for read interest with the default idle
// timeout and starts the state machine.
func (c *HTTPConn) open() error {
	c.channel.EnableReading()
	return c.reactor.Register(c.channel, defaultTimeoutMs)
}

func (c *HTTPConn) handleRead() error {
	_, err := drainRead(c.fd, &c.in)
	if err != nil {
		if err == errPeerClosed {
			c.phase = phaseDisconnecting
		} else {
			c.error = true
			c.phase = phaseDisconnecting
		}
	}
	c.process()
	return nil
}

func (c *HTTPConn) handleWrite() error {
	if c.out.Len() == 0 {
		c.channel.DisableWriting()
		return nil
	}
	wrote, err := drainWrite(c.fd, c.out.B)
	if err != nil {
		c.error = true
		c.phase = phaseDisconnecting
		return nil
	}
	remaining := append([]byte(nil), c.out.B[wrote:]...)
	c.out.Reset()
	c.out.Write(remaining)
	if c.out.Len() == 0 {
		c.channel.DisableWriting()
	} else {
		c.channel.EnableWriting()
	}
	return nil
}

func (c *HTTPConn) handleError() error {
	c.error = true
	c.phase = phaseDisconnecting
	return nil
}

// process cascades the top-level state machine forward in a single
// invocation until it either needs more bytes, completes, or errors (spec
// §4.5).
func (c *HTTPConn) process() {
	for {
		switch c.state {
		case stateParseRequestLine:
			needMore, ok := c.parseRequestLine()
			if !ok {
				c.fail(400, "Bad Request")
				return
			}
			if needMore {
				return
			}
			c.state = stateParseHeaders

		case stateParseHeaders:
			needMore, perr := c.parseHeaders()
			if perr {
				c.fail(400, "Bad Request")
				return
			}
			if needMore {
				return
			}
			if c.method == methodPost {
				c.state = stateReceiveBody
			} else {
				c.state = stateAnalyze
			}

		case stateReceiveBody:
			done, ok := c.receiveBody()
			if !ok {
				c.fail(400, "Bad Request: Lack of argument (Content-length)")
				return
			}
			if !done {
				return
			}
			c.state = stateAnalyze

		case stateAnalyze:
			c.analyze()
			c.state = stateFinished

		case stateFinished:
			if !c.error && c.phase == phaseConnected && len(c.in.B) > c.nowReadPos {
				c.resetForPipelining()
				c.state = stateParseRequestLine
				continue
			}
			return
		}
	}
}

// fail renders an error response and marks the connection for close once
// the response drains (spec §7 Parse error). Moving to Disconnecting
// (rather than just setting error) is what makes handlePostEvent's
// write-then-close branch engage instead of closing the fd immediately.
func (c *HTTPConn) fail(code int, shortMsg string) {
	c.writeErrorResponse(code, shortMsg)
	c.error = true
	c.phase = phaseDisconnecting
	c.state = stateFinished
}

// resetForPipelining clears per-request parse state while keeping the
// inbound buffer (it may already hold the next pipelined request) and the
// keep-alive flag (spec §4.5 "Reset for pipelining").
func (c *HTTPConn) resetForPipelining() {
	remaining := append([]byte(nil), c.in.B[c.nowReadPos:]...)
	c.in.Reset()
	c.in.Write(remaining)
	c.nowReadPos = 0
	c.keyStart, c.valStart = 0, 0
	c.curKey, c.curVal = "", ""
	c.requestPath = ""
	c.headers = nil
	c.hState = hStart
	c.method = methodUnknown
	c.version = versionUnknown
	c.timer.Cancel()
	c.timer = nil
}

// handlePostEvent is the Channel's post-event hook (spec §4.5 "Post-event
// hook"). It detaches the current timer, then decides what interest (and
// timeout) to re-register, or enqueues the close task.
func (c *HTTPConn) handlePostEvent() error {
	c.timer.Cancel()
	c.timer = nil

	if !c.error && c.phase == phaseConnected {
		wantRead := c.out.Len() == 0
		wantWrite := c.out.Len() > 0

		switch {
		case wantWrite:
			c.channel.DisableReading()
			c.channel.EnableWriting()
			timeout := defaultTimeoutMs
			if c.keepAlive {
				timeout = keepAliveTimeoutMs
			}
			_ = c.reactor.Modify(c.channel, timeout)
		case wantRead && c.keepAlive:
			c.channel.EnableReading()
			c.channel.DisableWriting()
			_ = c.reactor.Modify(c.channel, keepAliveTimeoutMs)
		case wantRead:
			c.channel.EnableReading()
			c.channel.DisableWriting()
			_ = c.reactor.Modify(c.channel, keepAliveTimeoutMs/2)
		default:
			c.reactor.RunInLoop(c.enqueueClose)
		}
		return nil
	}

	if c.phase == phaseDisconnecting && c.out.Len() > 0 {
		c.channel.DisableReading()
		c.channel.EnableWriting()
		_ = c.reactor.Modify(c.channel, defaultTimeoutMs)
		return nil
	}

	c.reactor.RunInLoop(c.enqueueClose)
	return nil
}

func (c *HTTPConn) enqueueClose() error {
	c.Close()
	return nil
}

// closeForTimeout is called by the Timer Heap when this connection's node
// reaches the top of the heap live and expired.
func (c *HTTPConn) closeForTimeout() {
	c.Close()
}

// Close moves the connection to Disconnected, unregisters its Channel, and
// closes its descriptor. Safe to call more than once.
func (c *HTTPConn) Close() {
	if c.phase == phaseDisconnected {
		return
	}
	c.phase = phaseDisconnected
	c.timer.Cancel()
	c.timer = nil
	_ = c.reactor.Unregister(c.channel)
	_ = unix.Close(c.fd)
}
