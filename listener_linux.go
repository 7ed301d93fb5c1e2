package flashd

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const listenBacklog = 2048

// listenTCP builds an IPv4 TCP listening socket bound to all interfaces on
// port, with address-reuse enabled and the fixed backlog spec §6 requires.
// Grounded on original_source/WebServer/Util.cpp's socket_bind_listen: a
// raw socket/setsockopt/bind/listen sequence rather than net.Listen, since
// the Acceptor needs the bare descriptor to register with its own
// Multiplexer instead of going through Go's runtime poller.
func listenTCP(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, errors.Wrap(err, "socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, errors.Wrap(err, "setsockopt SO_REUSEADDR")
	}
	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return -1, errors.Wrap(err, "bind")
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return -1, errors.Wrap(err, "listen")
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, errors.Wrap(err, "set listener nonblocking")
	}
	return fd, nil
}
