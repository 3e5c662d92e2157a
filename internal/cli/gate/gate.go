// Package gate is the routing guard: a pure decision over the current
// session and a destination. It never performs I/O and never errors;
// expected authorization outcomes are decisions, not failures.
package gate

import (
	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

// Well-known destinations
const (
	SignInPath         = "/signin"
	DefaultLandingPath = "/books"
)

// Route describes one destination and its access requirements.
// RequiredRole empty means any authenticated session passes; that is
// distinct from requiring the visitor role.
type Route struct {
	Path         string
	Guarded      bool
	RequiredRole string
	PublicOnly   bool // auth pages an authenticated session is bounced away from
}

// The application's route table, mirroring the page map of the web client
var routes = []Route{
	{Path: "/", PublicOnly: true},
	{Path: "/signin", PublicOnly: true},
	{Path: "/signup", PublicOnly: true},
	{Path: "/forgot-password", PublicOnly: true},
	{Path: "/verify-email", PublicOnly: true},
	{Path: "/books", Guarded: true},
	{Path: "/borrow", Guarded: true},
	{Path: "/collection", Guarded: true},
	{Path: "/DeletePhysicalBook", Guarded: true, RequiredRole: session.RoleAdmin},
	{Path: "/DeleteCollectionAndResource", Guarded: true, RequiredRole: session.RoleAdmin},
	{Path: "/UserManagement", Guarded: true, RequiredRole: session.RoleAdmin},
}

// Lookup returns the route for a destination path
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the route table
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Decision is the gate's verdict for one navigation
type Decision struct {
	Render     bool
	RedirectTo string // set when Render is false
}

func render() Decision {
	return Decision{Render: true}
}

func redirect(target string) Decision {
	return Decision{RedirectTo: target}
}

// Decide resolves one navigation. It must be re-evaluated on every
// navigation and on every session change; a logout while a guarded page
// is open re-runs this and lands on the sign-in redirect.
func Decide(s session.Session, dest string) Decision {
	route, known := Lookup(dest)
	if !known {
		// Unknown destinations collapse to the area the session may enter
		if s.IsAuthenticated() {
			return redirect(DefaultLandingPath)
		}
		return redirect(SignInPath)
	}

	if !s.IsAuthenticated() {
		if route.Guarded {
			return redirect(SignInPath)
		}
		return render()
	}

	// Authenticated sessions don't re-enter the auth flows
	if route.PublicOnly {
		return redirect(DefaultLandingPath)
	}

	// No role requirement: any authenticated session passes
	if route.RequiredRole == "" {
		return render()
	}

	if s.Role == route.RequiredRole {
		return render()
	}

	// Insufficient role: silent downgrade to the landing page, never an
	// error page and never the sign-in page
	return redirect(DefaultLandingPath)
}
