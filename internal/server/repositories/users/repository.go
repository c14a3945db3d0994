package users

import (
	"context"

	"github.com/wavelength-app/wavelength/internal/server/models"
)

// Repository is the credential store: a durable mapping from email to a
// user record. Email uniqueness is enforced by the store itself, so two
// concurrent registrations for the same email resolve to exactly one winner
// without any serialization in the service layer.
type Repository interface {
	// Create inserts a new user. A duplicate email yields
	// common.ErrorAlreadyExists and leaves the store unchanged.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user stored under email (compared exactly as
	// stored) or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
