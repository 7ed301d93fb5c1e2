package flashd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The following exercise spec.md's concrete scenarios (§8) against the
// process() state machine directly, without a live Reactor/epoll — process()
// never touches the Channel or descriptor, only the in/out buffers and
// parse state.

func TestProcessHelloSingleRequest(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/1.1\r\nConnection: Keep-Alive\r\n\r\n"))

	c.process()

	require.False(t, c.error)
	assert.Equal(t, stateFinished, c.state)
	resp := c.out.String()
	assert.Equal(t, helloBody, resp[len(resp)-len(helloBody):])
}

func TestProcessPipelinedHelloTwice(t *testing.T) {
	c := newTestConn()
	req := "GET /hello HTTP/1.1\r\nConnection: Keep-Alive\r\n\r\n"
	c.in.Write([]byte(req + req))

	c.process()

	require.False(t, c.error)
	got := c.out.String()
	assert.Equal(t, 2, strings.Count(got, "HTTP/1.1 200 OK"), "expected exactly two 200 responses in order")
	assert.Equal(t, 2, strings.Count(got, helloBody))
}

func TestProcessPostWithoutContentLengthIs400(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("POST /hello HTTP/1.1\r\nHost: x\r\n\r\n"))

	c.process()

	assert.True(t, c.error)
	assert.Contains(t, c.out.String(), "HTTP/1.1 400")
}

func TestProcessPostWithContentLengthRendersSameAsGET(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("POST /hello HTTP/1.1\r\nContent-length: 4\r\n\r\nabcd"))

	c.process()

	require.False(t, c.error)
	resp := c.out.String()
	assert.Equal(t, helloBody, resp[len(resp)-len(helloBody):], "a POST reaching Analyze renders the same response a GET would")
}

func TestProcessMalformedVersionIs400(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/0.9\r\n\r\n"))

	c.process()

	assert.True(t, c.error)
	assert.Contains(t, c.out.String(), "HTTP/1.1 400")
}

func TestProcessNeedsMoreDoesNotAdvanceState(t *testing.T) {
	c := newTestConn()
	c.in.Write([]byte("GET /hello HTTP/1.1\r\n"))

	c.process()

	assert.Contains(t, []parseState{stateParseHeaders, stateParseRequestLine}, c.state)
	assert.Equal(t, 0, c.out.Len(), "no response should be generated before the request is fully parsed")
}

func TestResetForPipeliningClearsPerRequestState(t *testing.T) {
	c := newTestConn()
	c.requestPath = "hello"
	c.headers = map[string]string{"Host": "x"}
	c.method = methodGet
	c.version = version11
	c.nowReadPos = 3
	c.in.Write([]byte("xxxleftover"))
	c.out.Write([]byte("stale"))

	c.resetForPipelining()

	assert.Equal(t, "", c.requestPath)
	assert.Nil(t, c.headers)
	assert.Equal(t, methodUnknown, c.method)
	assert.Equal(t, versionUnknown, c.version)
	assert.Equal(t, 0, c.nowReadPos)
	assert.Equal(t, "leftover", c.in.String())
	assert.Equal(t, "stale", c.out.String(), "responses already queued for earlier pipelined requests must survive the reset")
}
