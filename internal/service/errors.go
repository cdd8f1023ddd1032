// Package service holds the business rules behind the REST API. Services
// return *models.AppError values that handlers write with models.Respond.
package service

import (
	"context"
	"errors"

	"tourismcam/internal/models"
	"tourismcam/internal/repository"
	"tourismcam/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminCheck reports whether a user may moderate other users' content.
type AdminCheck func(ctx context.Context, userID uint) (bool, error)

// AdminFromUsers builds an AdminCheck from the user repository.
func AdminFromUsers(users repository.UserRepository) AdminCheck {
	return func(ctx context.Context, userID uint) (bool, error) {
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return u.IsAdmin(), nil
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validate(v interface{}) error {
	if err := validation.Validate(v); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// storeError converts repository sentinels into API errors.
func storeError(err error, resource string, id interface{}) error {
	var appErr *models.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, repository.ErrDuplicate):
		return models.NewConflictError(resource + " already exists")
	case errors.Is(err, repository.ErrInvalidParent):
		return models.NewValidationError("Parent comment does not belong to this post")
	default:
		return models.NewInternalError(err)
	}
}
