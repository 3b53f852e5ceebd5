package interfaces

import "context"

// Logger is the structured, leveled logger threaded through loading, feed
// rendering and the build commands. Arguments after msg are key/value pairs.
// go-logger's glog loggers fit behind it with a thin adapter.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	// WithFields returns a child logger that adds fields to every entry.
	WithFields(fields map[string]any) Logger
	// WithContext returns a child logger that also emits the fields stored on
	// ctx, such as the build_id of the current build.
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers by module name, e.g. "blog.generator".
type LoggerProvider interface {
	GetLogger(name string) Logger
}
