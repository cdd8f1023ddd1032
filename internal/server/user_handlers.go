package server

import (
	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/models"
)

// SearchUsers handles GET /api/users/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	resp, err := s.userService.SearchUsers(c.UserContext(), c.Query("q"), page.Limit)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(models.UserResponse{User: user})
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	resp, err := s.postService.UserPosts(c.UserContext(), userID, page.Limit, page.Offset, viewerID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}
