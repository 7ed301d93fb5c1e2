package flashd

import (
	"strconv"
	"strings"
)

type httpMethod int

const (
	methodUnknown httpMethod = iota
	methodGet
	methodPost
	methodHead
)

type httpVersion int

const (
	versionUnknown httpVersion = iota
	version10
	version11
)

// headerState is the nine-state character-driven header sub-machine (spec
// §4.5): Start → Key → Colon → SpacesAfterColon → Value → CR → LF →
// (EndCR → EndLF) | Key.
type headerState int

const (
	hStart headerState = iota
	hKey
	hColon
	hSpacesAfterColon
	hValue
	hCR
	hLF
	hEndCR
	hEndLF
)

const maxHeaderValueLen = 255

// parseRequestLine scans c.in.B from c.nowReadPos for the request line.
// needMore is true when no CR has arrived yet; ok is false on any parse
// error (spec §4.5 "Request-line parsing").
func (c *HTTPConn) parseRequestLine() (needMore bool, ok bool) {
	data := c.in.B[c.nowReadPos:]
	cr := indexByte(data, '\r')
	if cr < 0 {
		return true, true
	}
	line := string(data[:cr])

	method, tok := firstMethodToken(line)
	if method == methodUnknown {
		return false, false
	}
	afterMethod := strings.Index(line, tok) + len(tok)

	rest := line[afterMethod:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return false, false
	}
	targetStart := afterMethod + slash
	spaceRel := strings.IndexByte(line[targetStart:], ' ')
	if spaceRel < 0 {
		return false, false
	}
	target := line[targetStart : targetStart+spaceRel]
	if q := strings.IndexByte(target, '?'); q >= 0 {
		target = target[:q]
	}
	if target == "/" || target == "" {
		target = "/index.html"
	}

	verRest := line[targetStart+spaceRel:]
	vslash := strings.IndexByte(verRest, '/')
	if vslash < 0 || vslash+4 > len(verRest) {
		return false, false
	}
	switch verRest[vslash+1 : vslash+4] {
	case "1.0":
		c.version = version10
	case "1.1":
		c.version = version11
	default:
		return false, false
	}

	c.method = method
	c.requestPath = strings.TrimPrefix(target, "/")
	c.nowReadPos += cr + 2 // skip the line and its trailing CRLF
	return false, true
}

// firstMethodToken locates whichever of GET/POST/HEAD occurs earliest in
// line, matching spec's "tie-broken by first found".
func firstMethodToken(line string) (httpMethod, string) {
	candidates := []struct {
		tok string
		m   httpMethod
	}{
		{"GET", methodGet},
		{"POST", methodPost},
		{"HEAD", methodHead},
	}
	best := -1
	var bm httpMethod
	var bt string
	for _, cand := range candidates {
		if i := strings.Index(line, cand.tok); i >= 0 && (best == -1 || i < best) {
			best, bm, bt = i, cand.m, cand.tok
		}
	}
	return bm, bt
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// parseHeaders resumes from c.nowReadPos and c.hState, advancing one byte
// at a time through the nine-state sub-machine. needMore is true when the
// buffered bytes end mid-line; perr is true on any of: empty key, empty
// value, an over-long value, or any byte other than '\n' where '\r' must be
// followed by '\n'.
func (c *HTTPConn) parseHeaders() (needMore, perr bool) {
	data := c.in.B
	i := c.nowReadPos
	for i < len(data) {
		b := data[i]
		switch c.hState {
		case hStart:
			if b == '\r' {
				c.hState = hEndCR
				i++
				continue
			}
			c.keyStart = i
			c.hState = hKey
			i++
		case hKey:
			switch b {
			case ':':
				c.curKey = string(data[c.keyStart:i])
				if c.curKey == "" {
					return false, true
				}
				c.hState = hColon
				i++
			case '\r', '\n':
				return false, true
			default:
				i++
			}
		case hColon:
			if b != ' ' {
				return false, true
			}
			c.hState = hSpacesAfterColon
			i++
		case hSpacesAfterColon:
			if b == ' ' {
				i++
				continue
			}
			c.valStart = i
			c.hState = hValue
		case hValue:
			switch b {
			case '\r':
				val := string(data[c.valStart:i])
				if val == "" || len(val) > maxHeaderValueLen {
					return false, true
				}
				c.curVal = val
				c.hState = hCR
				i++
			case '\n':
				return false, true
			default:
				i++
			}
		case hCR:
			if b != '\n' {
				return false, true
			}
			if c.headers == nil {
				c.headers = make(map[string]string)
			}
			c.headers[c.curKey] = c.curVal
			c.nowReadPos = i + 1
			c.hState = hLF
			i++
		case hLF:
			c.hState = hStart
		case hEndCR:
			if b != '\n' {
				return false, true
			}
			c.nowReadPos = i + 1
			c.hState = hStart
			return false, false
		}
	}
	return true, false
}

// receiveBody requires the literal (non-canonical) Content-length header
// and waits for at least that many bytes past the header terminator (spec
// §4.5 "Body reception").
func (c *HTTPConn) receiveBody() (done bool, ok bool) {
	cl, has := c.headers["Content-length"]
	if !has {
		return false, false
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return false, false
	}
	if len(c.in.B)-c.nowReadPos < n {
		return false, true
	}
	c.nowReadPos += n
	return true, true
}
