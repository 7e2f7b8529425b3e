package telemetry

import "go.uber.org/zap"

// Logger exposes the logging capability required by simulation components.
// Keeping the interface this small lets the sim stay ignorant of the
// concrete logging stack.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapZap adapts a zap SugaredLogger to the Logger interface.
func WrapZap(log *zap.SugaredLogger) Logger {
	return &zapAdapter{log: log}
}

type zapAdapter struct {
	log *zap.SugaredLogger
}

func (a *zapAdapter) Printf(format string, args ...any) {
	if a == nil || a.log == nil {
		return
	}
	a.log.Infof(format, args...)
}

// Metrics exposes the counter methods required by server components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}
