package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user storage.
type UserStore interface {
	// Create creates a new user.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// ListByOrg returns all users in an organization.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.User, error)

	// ListSuperadmins returns every superadmin account, main and shadow.
	// The visibility resolver classifies these to build the isolated-creator
	// exclusion set for list queries.
	ListSuperadmins(ctx context.Context) ([]*models.User, error)
}
