package booking

import "context"

type sessionKey struct{}

// WithSession returns a context carrying the requester's session ID, which
// ends up (hashed) in the booking audit trail.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session ID stored by WithSession.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
