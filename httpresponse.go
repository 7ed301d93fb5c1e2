package flashd

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	helloBody = "Hello World"
	helloMime = "text/plain"
)

// analyze looks up the parsed target and generates the response into
// c.out, following spec §4.5 "Analyze / response generation". It always
// leaves c.state ready to transition to Finished; callers arm write
// interest via the post-event hook, not here.
func (c *HTTPConn) analyze() {
	c.keepAlive = c.headers["Connection"] == "Keep-Alive" || c.headers["Connection"] == "keep-alive"
	if c.accessLog != nil {
		c.accessLog.logAccess(fmt.Sprintf("fd=%d method=%d path=%q", c.fd, c.method, c.requestPath))
	}

	switch c.requestPath {
	case "hello":
		c.writeOKResponse(helloMime, []byte(helloBody))
		return
	case "favicon.ico":
		c.writeOKResponse(mimeType("favicon.ico"), favicon)
		return
	}

	fi, err := os.Stat(c.requestPath)
	if err != nil || !fi.Mode().IsRegular() {
		c.writeErrorResponse(404, "Not Found!")
		c.error = true
		c.phase = phaseDisconnecting
		return
	}
	f, err := os.Open(c.requestPath)
	if err != nil {
		c.writeErrorResponse(404, "Not Found!")
		c.error = true
		c.phase = phaseDisconnecting
		return
	}
	defer f.Close()

	size := fi.Size()
	var mapped []byte
	if size > 0 {
		mapped, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			c.writeErrorResponse(404, "Not Found!")
			c.error = true
			c.phase = phaseDisconnecting
			return
		}
	}

	c.writeResponseHeaders(200, "OK", mimeType(c.requestPath), size)
	if c.method != methodHead {
		c.out.Write(mapped)
	}
	if mapped != nil {
		_ = unix.Munmap(mapped)
	}
}

// writeOKResponse renders a 200 response whose body is already resident in
// memory (the "hello" stub and the embedded favicon), skipping the
// mmap/stat path entirely.
func (c *HTTPConn) writeOKResponse(mime string, body []byte) {
	c.writeResponseHeaders(200, "OK", mime, int64(len(body)))
	if c.method != methodHead {
		c.out.Write(body)
	}
}

// writeResponseHeaders builds the status line and header block described
// in spec §4.5/§6: optional Keep-Alive pair, Content-Type, Content-Length,
// a server token, and the terminating blank line.
func (c *HTTPConn) writeResponseHeaders(code int, reason, mime string, length int64) {
	fmt.Fprintf(&c.out, "HTTP/1.1 %d %s\r\n", code, reason)
	if c.keepAlive {
		fmt.Fprintf(&c.out, "Connection: Keep-Alive\r\n")
		fmt.Fprintf(&c.out, "Keep-Alive: timeout=%d\r\n", keepAliveTimeoutMs)
	}
	fmt.Fprintf(&c.out, "Content-Type: %s\r\n", mime)
	fmt.Fprintf(&c.out, "Content-Length: %d\r\n", length)
	fmt.Fprintf(&c.out, "Server: %s\r\n", serverToken)
	c.out.Write([]byte("\r\n"))
}

// writeErrorResponse clears any previously-built response and renders the
// minimal error page, always closing the connection afterward (spec §6:
// "Connection: Close" on error responses, §7 "respond with body cleared
// and regenerated").
func (c *HTTPConn) writeErrorResponse(code int, shortMsg string) {
	c.out.Reset()
	body := errorPage(code, shortMsg)
	fmt.Fprintf(&c.out, "HTTP/1.1 %d %s\r\n", code, shortMsg)
	fmt.Fprintf(&c.out, "Content-Type: text/html\r\n")
	fmt.Fprintf(&c.out, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(&c.out, "Connection: Close\r\n")
	fmt.Fprintf(&c.out, "Server: %s\r\n", serverToken)
	c.out.Write([]byte("\r\n"))
	c.out.Write([]byte(body))
	c.keepAlive = false
}
