package sessiongate

// GuardState is the outcome class of one navigation attempt.
type GuardState int

const (
	// GuardPending means the session is still resolving; render a loading
	// indicator and make no redirect.
	GuardPending GuardState = iota
	// GuardAnonymous means no identity is attached; go to the login entry.
	GuardAnonymous
	// GuardLocked means the account is deactivated; locked overrides role.
	GuardLocked
	// GuardUnauthorized means the role does not match and no soft redirect applies.
	GuardUnauthorized
	// GuardAuthorized means the requested content may render.
	GuardAuthorized
)

func (s GuardState) String() string {
	switch s {
	case GuardPending:
		return "pending"
	case GuardAnonymous:
		return "anonymous"
	case GuardLocked:
		return "locked"
	case GuardUnauthorized:
		return "unauthorized"
	case GuardAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Decision pairs a guard state with the redirect it implies. RedirectTo is
// empty for GuardPending and GuardAuthorized.
type Decision struct {
	State      GuardState
	RedirectTo string
}

// Routes holds the guard's redirect targets.
type Routes struct {
	Login        string
	Locked       string
	Unauthorized string
	Landing      string
}

// DefaultRoutes matches the application's route table.
func DefaultRoutes() Routes {
	return Routes{
		Login:        "/login",
		Locked:       "/locked",
		Unauthorized: "/unauthorized",
		Landing:      "/",
	}
}

// Guard is the pure decision table mapping (session, required role) to an
// authorization outcome. It holds no state beyond the route targets, so the
// evaluation order below is the whole contract:
//
//  1. loading gates everything - no redirect may fire before resolution
//  2. no identity - login
//  3. locked - locked page, regardless of role (a locked admin keeps nothing)
//  4. role mismatch - a plain user on an admin path is routine, soft-redirect
//     to the landing page; any other mismatch is the unauthorized page
//  5. authorized
type Guard struct {
	routes Routes
}

// NewGuard builds a guard over the given route targets; zero-value fields
// fall back to DefaultRoutes.
func NewGuard(routes Routes) *Guard {
	def := DefaultRoutes()
	if routes.Login == "" {
		routes.Login = def.Login
	}
	if routes.Locked == "" {
		routes.Locked = def.Locked
	}
	if routes.Unauthorized == "" {
		routes.Unauthorized = def.Unauthorized
	}
	if routes.Landing == "" {
		routes.Landing = def.Landing
	}
	return &Guard{routes: routes}
}

// Routes exposes the configured targets.
func (g *Guard) Routes() Routes {
	return g.routes
}

// Evaluate runs the decision table. requiredRole empty means any
// authenticated, active session qualifies.
func (g *Guard) Evaluate(session Session, requiredRole Role) Decision {
	if session.Loading {
		return Decision{State: GuardPending}
	}

	if !session.Authenticated() {
		return Decision{State: GuardAnonymous, RedirectTo: g.routes.Login}
	}

	if !session.IsActive {
		return Decision{State: GuardLocked, RedirectTo: g.routes.Locked}
	}

	if requiredRole != "" && session.Role != requiredRole {
		if requiredRole == RoleAdmin && session.Role == RoleUser {
			return Decision{State: GuardUnauthorized, RedirectTo: g.routes.Landing}
		}
		return Decision{State: GuardUnauthorized, RedirectTo: g.routes.Unauthorized}
	}

	return Decision{State: GuardAuthorized}
}
