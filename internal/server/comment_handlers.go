package server

import (
	"github.com/gofiber/fiber/v2"

	"tourismcam/internal/models"
)

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	userID, _ := s.optionalUserID(c)

	resp, err := s.commentService.ListComments(c.UserContext(), postID, page.Limit, page.Offset, userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	resp, err := s.commentService.AddComment(c.UserContext(), currentUserID(c), postID, req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req models.UpdateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	resp, err := s.commentService.EditComment(c.UserContext(), currentUserID(c), postID, commentID, req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	resp, err := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), postID, commentID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}
