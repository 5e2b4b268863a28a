// Package service holds helpers shared by the domain services in its
// subpackages.
package service

import (
	"context"
	"errors"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

// MapNotFound turns repository.ErrNotFound into a 404 for resource and any
// other failure into a 500.
func MapNotFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}

// RequireUser loads a user that must hold role. A missing user and a user
// with another role both yield "<resource> not found".
func RequireUser(ctx context.Context, users repository.UserRepository, id int64, role, resource string) (*model.User, error) {
	u, err := users.Get(ctx, id)
	if err != nil {
		return nil, MapNotFound(err, resource)
	}
	if role != "" && u.Role != role {
		return nil, apperrors.NotFound(resource, nil)
	}
	return u, nil
}
