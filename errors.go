package flashd

import "github.com/pkg/errors"

// Sentinel errors returned across reactor/acceptor/connection boundaries.
// Nothing else propagates out of a reactor's own goroutine (spec: errors
// are not propagated across reactors, a failing connection affects only
// itself).
var (
	errPeerClosed     = errors.New("flashd: peer closed connection")
	errDescriptorFull = errors.New("flashd: descriptor ceiling exceeded")
)
