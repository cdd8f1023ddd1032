package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/middleware"
	"tourismcam/internal/models"
)

const sessionCookie = "session_id"

func (s *Server) setSessionCookies(c *fiber.Ctx, resp *models.AuthResponse) {
	for name, value := range map[string]string{
		middleware.AuthCookie: resp.Token,
		sessionCookie:         resp.SessionID,
	} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  resp.ExpiresAt,
			HTTPOnly: true,
			Secure:   s.config.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AuthCookie, sessionCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	resp, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	s.setSessionCookies(c, resp)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	resp, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	s.setSessionCookies(c, resp)
	return c.JSON(resp)
}

// Logout handles POST /api/auth/logout. It succeeds with or without a
// session so clients can always clear their state.
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sessionID := c.Cookies(sessionCookie)
	if token := bearerToken(c); token != "" {
		if _, session, err := s.authService.Authenticate(ctx, token); err == nil {
			sessionID = session.SessionID
		}
	}

	if err := s.authService.Logout(ctx, sessionID); err != nil {
		return models.Respond(c, err)
	}
	clearSessionCookies(c)
	return c.JSON(models.MessageResponse{Message: "Logged out successfully"})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(models.UserResponse{User: user})
}

// UpdateProfile handles PUT /api/auth/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(models.UserResponse{User: user})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req models.ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	resp, err := s.authService.ForgotPassword(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// ResetPassword handles POST /api/auth/reset-password
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req models.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.authService.ResetPassword(c.UserContext(), req); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "Password has been reset"})
}
