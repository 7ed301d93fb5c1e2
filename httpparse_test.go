package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn() *HTTPConn {
	return &HTTPConn{phase: phaseConnected}
}

func TestParseRequestLineGetHelloHTTP11(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n"))

	needMore, ok := c.parseRequestLine()
	require.True(t, ok)
	require.False(t, needMore)
	assert.Equal(t, methodGet, c.method)
	assert.Equal(t, version11, c.version)
	assert.Equal(t, "hello", c.requestPath)
}

func TestParseRequestLineRootDefaultsToIndexHTML(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET / HTTP/1.0\r\n\r\n"))

	_, ok := c.parseRequestLine()
	require.True(t, ok)
	assert.Equal(t, "index.html", c.requestPath)
	assert.Equal(t, version10, c.version)
}

func TestParseRequestLineStripsQueryString(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello?x=1 HTTP/1.1\r\n\r\n"))

	_, ok := c.parseRequestLine()
	require.True(t, ok)
	assert.Equal(t, "hello", c.requestPath)
}

func TestParseRequestLineNeedsMoreWithoutCR(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/1.1"))

	needMore, ok := c.parseRequestLine()
	require.True(t, ok)
	assert.True(t, needMore)
}

func TestParseRequestLineRejectsUnknownVersion(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/2.0\r\n\r\n"))

	_, ok := c.parseRequestLine()
	assert.False(t, ok)
}

func TestParseRequestLineRejectsUnknownMethod(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("PUT /hello HTTP/1.1\r\n\r\n"))

	_, ok := c.parseRequestLine()
	assert.False(t, ok)
}

func TestFirstMethodTokenPicksEarliestOccurrence(t *testing.T) {
	m, tok := firstMethodToken("HEAD /GET/POST HTTP/1.1")
	assert.Equal(t, methodHead, m)
	assert.Equal(t, "HEAD", tok)
}

func TestParseHeadersCollectsKeyValuePairs(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("Host: example.com\r\nConnection: Keep-Alive\r\n\r\n"))

	needMore, perr := c.parseHeaders()
	require.False(t, perr)
	require.False(t, needMore)
	assert.Equal(t, "example.com", c.headers["Host"])
	assert.Equal(t, "Keep-Alive", c.headers["Connection"])
}

func TestParseHeadersNeedsMoreMidLine(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("Host: exam"))

	needMore, perr := c.parseHeaders()
	require.False(t, perr)
	assert.True(t, needMore)
}

func TestParseHeadersResumesAcrossCalls(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("Host: exam"))
	needMore, perr := c.parseHeaders()
	require.False(t, perr)
	require.True(t, needMore)

	c.in.Write([]byte("ple.com\r\n\r\n"))
	needMore, perr = c.parseHeaders()
	require.False(t, perr)
	require.False(t, needMore)
	assert.Equal(t, "example.com", c.headers["Host"])
}

func TestReceiveBodyRequiresNonCanonicalContentLength(t *testing.T) {
	c := newTestConn()
	c.headers = map[string]string{"Content-Length": "5"} // canonical spelling, must be ignored
	c.in.Write([]byte("hello"))

	_, ok := c.receiveBody()
	assert.False(t, ok, "only the non-canonical 'Content-length' key is recognized")
}

func TestReceiveBodyWaitsForFullBody(t *testing.T) {
	c := newTestConn()
	c.headers = map[string]string{"Content-length": "10"}
	c.in.Write([]byte("12345"))

	done, ok := c.receiveBody()
	require.True(t, ok)
	assert.False(t, done, "only 5 of 10 declared bytes are buffered")

	c.in.Write([]byte("67890"))
	done, ok = c.receiveBody()
	require.True(t, ok)
	assert.True(t, done)
}
