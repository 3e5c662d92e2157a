// Package commands implements the BookHub CLI commands. Every command
// that shows a page goes through App.Navigate, which asks the gate
// whether the current session may enter the destination and follows its
// redirect when it may not.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bookhub-dev/bookhub/internal/cli/client"
	"github.com/bookhub-dev/bookhub/internal/cli/gate"
	"github.com/bookhub-dev/bookhub/internal/cli/gateway"
	"github.com/bookhub-dev/bookhub/internal/cli/library"
	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

var (
	// ErrSignInRequired means the gate bounced the navigation to the
	// sign-in page
	ErrSignInRequired = errors.New("you are not signed in. Run 'bookhub signin' first")

	// ErrSignInInFlight rejects a second sign-in while one is pending
	ErrSignInInFlight = errors.New("a sign-in is already in progress")
)

// LibraryOpener defers opening the digital library until a command
// needs it, so catalog commands never touch AWS config
type LibraryOpener func(ctx context.Context) (*library.Library, error)

// App bundles the client-side state every command operates on
type App struct {
	Sessions    *session.Store
	Gateway     *gateway.Gateway
	API         *client.Factory
	OpenLibrary LibraryOpener
	Out         io.Writer

	mu            sync.Mutex
	signInPending bool
}

// PageFunc renders one destination's content
type PageFunc func(ctx context.Context) error

// Navigate runs page if the gate admits the current session to dest.
// Redirects are followed for exactly one hop: a bounce to the sign-in
// page surfaces as ErrSignInRequired, and a bounce to the landing page
// shows the catalog instead, with no complaint about permissions.
func (a *App) Navigate(ctx context.Context, dest string, page PageFunc) error {
	decision := gate.Decide(a.Sessions.Current(), dest)
	if decision.Render {
		return page(ctx)
	}

	switch decision.RedirectTo {
	case gate.SignInPath:
		return ErrSignInRequired
	case gate.DefaultLandingPath:
		return a.renderBooks(ctx, "")
	default:
		return fmt.Errorf("no page for %s", decision.RedirectTo)
	}
}

// signIn is the one login path. It snapshots the session generation
// before the provider round-trip and applies the result only if the
// session is unchanged since, so a result arriving after a sign-out or
// a competing sign-in is discarded rather than merged.
func (a *App) signIn(ctx context.Context, email, password string) error {
	a.mu.Lock()
	if a.signInPending {
		a.mu.Unlock()
		return ErrSignInInFlight
	}
	a.signInPending = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.signInPending = false
		a.mu.Unlock()
	}()

	generation := a.Sessions.Generation()

	s, err := a.Gateway.Authenticate(ctx, email, password)
	if err != nil {
		return signInFailure(err)
	}

	applied, err := a.Sessions.SetIfCurrent(generation, s)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !applied {
		fmt.Fprintln(a.Out, "The session changed while signing in; this result was discarded.")
		return nil
	}

	fmt.Fprintf(a.Out, "Signed in as %s (%s)\n", s.Name, s.Role)
	return nil
}

func signInFailure(err error) error {
	switch gateway.ReasonOf(err) {
	case gateway.ReasonBadCredentials:
		return fmt.Errorf("incorrect email or password")
	case gateway.ReasonUnconfirmed:
		return fmt.Errorf("this account is not verified yet. Run 'bookhub verify-email' with the code you received")
	case gateway.ReasonDisabled:
		return fmt.Errorf("this account has been disabled")
	case gateway.ReasonNotFound:
		return fmt.Errorf("no account exists for that email")
	default:
		return fmt.Errorf("sign-in failed: %w", err)
	}
}
