package flashd

// Options configures a Server. The three fields mirror the CLI's three
// flags (spec §6): worker reactor count, listen port, and log file path.
type Options struct {
	// NumReactors is the size of the worker Reactor Pool. Zero or negative
	// is a fatal setup error (spec §7).
	NumReactors int
	// Port is the TCP port the Acceptor listens on, all interfaces.
	Port int
	// LogPath is where the Logger writes. The CLI boundary rejects an
	// explicitly supplied -l path that does not start with '/'; its
	// built-in default, ./flashd.log, is relative and is not checked.
	LogPath string
}

// DefaultOptions returns the spec's documented defaults: 4 worker
// reactors, port 80.
func DefaultOptions() Options {
	return Options{NumReactors: 4, Port: 80}
}
