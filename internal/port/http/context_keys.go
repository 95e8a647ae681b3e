package http

import "context"

// ContextKey keeps this package's context values from colliding with others.
type ContextKey string

const (
	// SessionIDCtxKey holds the visitor's session id set by the Session middleware.
	SessionIDCtxKey = ContextKey("session_id")
)

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDCtxKey).(string)
	return id
}
