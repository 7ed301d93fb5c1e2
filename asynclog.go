package flashd

import (
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// accessLogPool is a small goroutine pool that formats and writes access
// log lines off a Reactor's hot path. logAccess is called synchronously
// from analyze(), i.e. from inside a reactor's own dispatch sequence, so
// the pool is non-blocking: Submit either hands the line to an idle worker
// or fails immediately, and a saturated pool drops the line (logged at
// Error) rather than stalling the calling goroutine (spec §5: handlers
// must return promptly, the only blocking call is Poll).
type accessLogPool struct {
	pool *ants.Pool
	log  Logger
}

// newAccessLogPool builds a bounded, non-blocking pool of size workers.
func newAccessLogPool(size int, log Logger) (*accessLogPool, error) {
	p, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "flashd: create access-log pool")
	}
	return &accessLogPool{pool: p, log: log}, nil
}

// logAccess submits a line for asynchronous logging. It never blocks the
// calling reactor goroutine: if the pool is saturated, Submit fails
// immediately and the line is dropped and logged as an error instead.
func (a *accessLogPool) logAccess(line string) {
	err := a.pool.Submit(func() {
		a.log.Infof("%s", line)
	})
	if err != nil {
		a.log.Errorf("flashd: access-log dropped, pool saturated: %v", err)
	}
}

func (a *accessLogPool) Release() {
	a.pool.Release()
}
