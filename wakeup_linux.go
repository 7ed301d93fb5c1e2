package flashd

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// newWakeupFD creates an eventfd: an 8-byte counter that a write increments
// and a read drains, used as the Reactor's cross-goroutine wakeup
// descriptor (spec §4.4).
func newWakeupFD() (int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return -1, errors.Wrap(err, "eventfd")
	}
	return fd, nil
}

// wakeWakeupFD signals fd with the canonical 8-byte write.
func wakeWakeupFD(fd int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(fd, buf[:])
}

// drainWakeupFD reads back (and discards) the accumulated counter so the
// next edge-triggered notification requires a fresh write.
func drainWakeupFD(fd int) error {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err == nil {
			return nil
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		return errors.Wrap(err, "drain wakeup descriptor")
	}
}

func closeWakeupFD(fd int) error {
	return unix.Close(fd)
}
