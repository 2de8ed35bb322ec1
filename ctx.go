package sessiongate

import (
	"context"

	"github.com/goliatone/go-router"
)

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithSessionContext sets the Session in the given context
func WithSessionContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext finds the session in the context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}

// SessionFromRouterContext extracts the session the guard middleware stored
// in the router locals.
func SessionFromRouterContext(c router.Context, key string) (Session, bool) {
	if key == "" {
		key = "session"
	}
	raw := c.Locals(key)
	if raw == nil {
		return Session{}, false
	}
	session, ok := raw.(Session)
	return session, ok
}

// IsAdmin is a convenience check against the context session.
func IsAdmin(ctx context.Context) bool {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return false
	}
	return session.Authenticated() && session.IsActive && session.Role == RoleAdmin
}
