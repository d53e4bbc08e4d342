package shared

import (
	"context"
	"log/slog"
)

type sessionContextKey struct{}

type loggerContextKey struct{}

// ContextWithSession stores the authenticated session in context.
func ContextWithSession(ctx context.Context, sess *SessionData) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *SessionData {
	sess, _ := ctx.Value(sessionContextKey{}).(*SessionData)
	return sess
}

// TokenFromContext returns the access token attached by the gateway.
func TokenFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Token
	}
	return ""
}

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) *User {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.User
	}
	return nil
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext returns the request logger or the fallback.
func LoggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
