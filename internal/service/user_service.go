package service

import (
	"context"
	"strings"

	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

// SearchUsers matches username or full name, case-insensitively.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) (*models.UserListResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	limit, _ = normalizePage(limit, 0)
	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return &models.UserListResponse{Users: users}, nil
}
