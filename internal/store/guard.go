package store

import (
	"tourismcam/internal/routegate"
)

// Guard is the component-level page gate. Like the server's cookie gate it
// only looks at whether a token is held.
type Guard struct {
	gate *routegate.Gate
	auth *AuthStore
	nav  Navigator
}

func NewGuard(gate *routegate.Gate, auth *AuthStore, nav Navigator) *Guard {
	return &Guard{gate: gate, auth: auth, nav: nav}
}

// Check decides access to path without navigating.
func (g *Guard) Check(path string) routegate.Decision {
	return g.gate.Decide(path, g.auth.HasToken())
}

// Enter navigates to the redirect when path is not allowed and reports
// whether the page may render.
func (g *Guard) Enter(path string) bool {
	d := g.Check(path)
	if d.Allowed() {
		return true
	}
	if g.nav != nil {
		g.nav.Navigate(d.Redirect)
	}
	return false
}
