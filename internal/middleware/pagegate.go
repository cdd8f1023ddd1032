package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/routegate"
)

// AuthCookie is the cookie the login endpoint sets for page requests.
const AuthCookie = "auth_token"

var apiPrefixes = []string{"/api", "/health", "/metrics"}

// PageGate redirects page requests based on whether the auth cookie is
// present. API routes are left to the bearer check.
func PageGate(gate *routegate.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, p := range apiPrefixes {
			if path == p || strings.HasPrefix(path, p+"/") {
				return c.Next()
			}
		}

		decision := gate.Decide(path, c.Cookies(AuthCookie) != "")
		if !decision.Allowed() {
			return c.Redirect(decision.Redirect, fiber.StatusFound)
		}
		return c.Next()
	}
}
