package flashd

import "go.uber.org/zap"

// Logger is the logging seam every CORE package writes through. It keeps
// the zap dependency out of the reactor/acceptor/connection files
// themselves, the same separation gnet draws between its eventloop code and
// the Logger field on server.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a Logger backed by a zap production logger writing to
// path. It accepts relative and absolute paths alike; the CLI boundary
// rejects an explicit -l value that does not start with '/' before calling
// this.
func NewLogger(path string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: z.Sugar()}, nil
}

func (l *zapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// discardLogger is used where no logger was supplied; it matches gnet's
// pattern of installing a harmless default rather than nil-checking on
// every call site.
type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Errorf(string, ...interface{}) {}
