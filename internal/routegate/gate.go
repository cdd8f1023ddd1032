// Package routegate decides page access from token presence alone. The same
// decision backs the request-level cookie check on the server and the
// component-level guard in client stores.
package routegate

import (
	"net/url"
	"strings"
)

// Default page paths.
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
)

// Gate holds the protected and auth-only path prefixes.
type Gate struct {
	Protected []string
	AuthPages []string
	LoginPath string
	HomePath  string
}

// Decision is the outcome of a gate check. Redirect is empty when access is allowed.
type Decision struct {
	Redirect string
}

// Allowed reports whether the page may be shown.
func (d Decision) Allowed() bool { return d.Redirect == "" }

// New builds a gate with the default login and home paths.
func New(protected, authPages []string) *Gate {
	return &Gate{
		Protected: protected,
		AuthPages: authPages,
		LoginPath: DefaultLoginPath,
		HomePath:  DefaultHomePath,
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// IsProtected reports whether path needs a token.
func (g *Gate) IsProtected(path string) bool {
	return matchesAny(path, g.Protected)
}

// IsAuthPage reports whether path is a login/register style page.
func (g *Gate) IsAuthPage(path string) bool {
	return matchesAny(path, g.AuthPages)
}

// Decide checks path against token presence. Validity of the token is not
// checked here; the API rejects bad tokens on the next call.
func (g *Gate) Decide(path string, hasToken bool) Decision {
	switch {
	case !hasToken && g.IsProtected(path):
		return Decision{Redirect: g.LoginPath + "?redirect=" + url.QueryEscape(path)}
	case hasToken && g.IsAuthPage(path):
		return Decision{Redirect: g.HomePath}
	default:
		return Decision{}
	}
}
