package flashd

import (
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"
)

const readChunk = 4096

// drainRead repeatedly reads fd into buf until the kernel reports
// would-block, appending everything it gets. err is errPeerClosed when the
// peer has performed an orderly shutdown (a zero-length read with no prior
// error). Edge-triggered notification requires this full drain on every
// readable event (spec §4.1).
func drainRead(fd int, buf *bytebufferpool.ByteBuffer) (n int, err error) {
	var chunk [readChunk]byte
	for {
		nr, rerr := unix.Read(fd, chunk[:])
		if nr > 0 {
			buf.Write(chunk[:nr])
			n += nr
		}
		if rerr == nil && nr == 0 {
			return n, errPeerClosed
		}
		if rerr == nil {
			continue
		}
		if rerr == unix.EAGAIN {
			return n, nil
		}
		if rerr == unix.EINTR {
			continue
		}
		return n, rerr
	}
}

// drainWrite writes as much of data as the kernel will currently accept,
// returning the number of bytes actually written. A would-block return
// (wrote < len(data), err == nil) means the caller must re-arm write
// interest and retry the remainder later.
func drainWrite(fd int, data []byte) (wrote int, err error) {
	for wrote < len(data) {
		nw, werr := unix.Write(fd, data[wrote:])
		if nw > 0 {
			wrote += nw
		}
		if werr == nil {
			continue
		}
		if werr == unix.EAGAIN {
			return wrote, nil
		}
		if werr == unix.EINTR {
			continue
		}
		return wrote, werr
	}
	return wrote, nil
}

func setNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}

func setNoDelay(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}
