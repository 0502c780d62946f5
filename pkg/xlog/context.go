package xlog

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// FromContext returns the *Logger from context. Without one it falls back to the
// globally installed Logger, then to a Logger wrapping slog.Default().
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	if l := Active(); l != nil {
		return l
	}
	return &Logger{Logger: slog.Default()}
}

// WithContext stores the *Logger in context.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// WithAttrs adds attributes to the logger in context and returns a new context.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// WithModule tags every record logged through the context logger with the given source.
func WithModule(ctx context.Context, name string) context.Context {
	return WithContext(ctx, FromContext(ctx).Module(name))
}
