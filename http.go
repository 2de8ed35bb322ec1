package sessiongate

import (
	"net/http"
	"time"

	"github.com/goliatone/go-router"
)

// SessionContextKey is where the guard middleware stashes the session for
// downstream handlers.
const SessionContextKey = "session"

// RejectedRouteCookie remembers the path an anonymous visitor was heading to
// so login can send them back.
const RejectedRouteCookie = "rejected_route"

// RoutesFromConfig lifts the redirect targets off a GuardConfig.
func RoutesFromConfig(cfg GuardConfig) Routes {
	return Routes{
		Login:        cfg.GetLoginRoute(),
		Locked:       cfg.GetLockedRoute(),
		Unauthorized: cfg.GetUnauthorizedRoute(),
		Landing:      cfg.GetLandingRoute(),
	}
}

// RouteGuard applies Guard decisions to HTTP navigation. It reads the
// session from the store on every request; it never caches a decision.
type RouteGuard struct {
	guard          *Guard
	store          *Store
	Logger         Logger
	PendingHandler func(c router.Context) error
}

// NewRouteGuard builds the middleware factory over a guard and the session
// store. The default pending handler renders a plain loading body with no
// redirect, which is the only legal outcome while the session resolves.
func NewRouteGuard(guard *Guard, store *Store) *RouteGuard {
	g := &RouteGuard{
		guard:  guard,
		store:  store,
		Logger: defLogger{},
	}
	g.PendingHandler = g.defaultPendingHandler
	return g
}

// Protected returns middleware for routes any signed-in active account may
// use.
func (g *RouteGuard) Protected() router.MiddlewareFunc {
	return g.RequireRole("")
}

// RequireRole returns middleware enforcing the given role; empty means any
// authenticated, active session.
func (g *RouteGuard) RequireRole(requiredRole Role) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			session := g.store.Current()
			decision := g.guard.Evaluate(session, requiredRole)

			switch decision.State {
			case GuardPending:
				return g.PendingHandler(c)
			case GuardAnonymous:
				g.SetRedirect(c)
				return g.redirect(c, decision.RedirectTo)
			case GuardLocked, GuardUnauthorized:
				g.Logger.Info(
					"navigation rejected",
					"state", decision.State.String(),
					"path", c.OriginalURL(),
					"redirect", decision.RedirectTo,
				)
				return g.redirect(c, decision.RedirectTo)
			default:
				c.Locals(SessionContextKey, session)
				c.SetContext(WithSessionContext(c.Context(), session))
				return next(c)
			}
		}
	}
}

// SetRedirect remembers the rejected path for the post-login bounce.
func (g *RouteGuard) SetRedirect(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RejectedRouteCookie,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect pops the remembered path, falling back to def.
func (g *RouteGuard) GetRedirect(c router.Context, def string) string {
	r := c.Cookies(RejectedRouteCookie)
	if r == "" {
		return def
	}
	g.cookieDel(c, RejectedRouteCookie)
	return r
}

func (g *RouteGuard) redirect(c router.Context, target string) error {
	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(target, statusCode)
}

func (g *RouteGuard) defaultPendingHandler(c router.Context) error {
	return c.Status(http.StatusOK).SendString("Loading...")
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
