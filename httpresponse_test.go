package flashd

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeHelloReturnsFixedBody(t *testing.T) {
	c := newTestConn()
	c.requestPath = "hello"
	c.method = methodGet

	c.analyze()

	resp := c.out.String()
	assert.Contains(t, resp, "HTTP/1.1 200 OK")
	assert.Contains(t, resp, "Content-Length: "+strconv.Itoa(len(helloBody)))
	require.True(t, len(resp) >= len(helloBody))
	assert.Equal(t, helloBody, resp[len(resp)-len(helloBody):])
}

func TestAnalyzeFaviconReturns555Bytes(t *testing.T) {
	c := newTestConn()
	c.requestPath = "favicon.ico"
	c.method = methodGet

	c.analyze()

	assert.Contains(t, c.out.String(), "Content-Length: 555")
	assert.Len(t, favicon, 555)
}

func TestAnalyzeHeadStopsAfterHeaders(t *testing.T) {
	c := newTestConn()
	c.requestPath = "hello"
	c.method = methodHead

	c.analyze()

	resp := c.out.String()
	assert.NotContains(t, resp, helloBody, "HEAD response must not include a body")
	assert.Contains(t, resp, "Content-Length: "+strconv.Itoa(len(helloBody)))
}

func TestAnalyzeMissingFileReturns404AndSetsError(t *testing.T) {
	c := newTestConn()
	c.requestPath = "this-file-does-not-exist-anywhere.html"
	c.method = methodGet

	c.analyze()

	assert.Contains(t, c.out.String(), "HTTP/1.1 404")
	assert.True(t, c.error, "a 404 on a missing file must set the error flag so the connection closes instead of pipelining")
}

func TestWriteErrorResponseSetsConnectionCloseAndClearsKeepAlive(t *testing.T) {
	c := newTestConn()
	c.keepAlive = true

	c.writeErrorResponse(400, "Bad Request")

	assert.Contains(t, c.out.String(), "Connection: Close")
	assert.False(t, c.keepAlive)
}

func TestWriteResponseHeadersKeepAlivePair(t *testing.T) {
	c := newTestConn()
	c.keepAlive = true

	c.writeResponseHeaders(200, "OK", "text/plain", 0)

	resp := c.out.String()
	assert.Contains(t, resp, "Connection: Keep-Alive")
	assert.Contains(t, resp, "Keep-Alive: timeout="+strconv.Itoa(keepAliveTimeoutMs))
}
