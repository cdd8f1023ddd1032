package server

import (
	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/models"
	"tourismcam/internal/service"
)

// GetPosts handles GET /api/posts?limit=&offset=&tag=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	userID, _ := s.optionalUserID(c)

	resp, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:    page.Limit,
		Offset:   page.Offset,
		ViewerID: userID,
		Tag:      c.Query("tag"),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// SearchPosts handles GET /api/posts/search?q=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	userID, _ := s.optionalUserID(c)

	resp, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), page.Limit, page.Offset, userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// GetSavedPosts handles GET /api/posts/saved
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	resp, err := s.postService.SavedPosts(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(c.UserContext(), postID, userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req models.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), currentUserID(c), postID, req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "Post deleted successfully"})
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	resp, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// ToggleSave handles POST /api/posts/:id/save
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	resp, err := s.postService.ToggleSave(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}
