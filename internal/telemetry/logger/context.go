package logger

import "context"

type contextKey string

const (
	loggerKey  contextKey = "starledger.logger"
	sessionKey contextKey = "starledger.session"
	fileKey    contextKey = "starledger.file"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context's logger, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithSession records the game session being processed.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session recorded by WithSession.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

// WithFile records the save file being processed.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey, path)
}

// FileFromContext returns the file recorded by WithFile.
func FileFromContext(ctx context.Context) string {
	s, _ := ctx.Value(fileKey).(string)
	return s
}

// L returns the context's logger enriched with its session and file.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if s := SessionFromContext(ctx); s != "" {
		l = l.With("session", s)
	}
	if f := FileFromContext(ctx); f != "" {
		l = l.With("file", f)
	}
	return l
}
