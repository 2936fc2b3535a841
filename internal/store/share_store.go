package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Sentinel errors for share store operations
var (
	ErrShareNotFound      = errors.New("share not found")
	ErrShareAlreadyExists = errors.New("share already granted")
)

// ShareStore manages sharing grants. A grant is unique on the full
// (resource_type, resource_id, shared_by_id, shared_with_id) tuple: the same
// resource shared to the same recipient by two different sharers is two
// grants, revoked independently.
type ShareStore interface {
	// Grant creates a new share.
	// Returns ErrShareAlreadyExists when the same sharer already granted
	// this recipient access to this resource.
	Grant(ctx context.Context, share *models.SharedAccess) error

	// Revoke removes one sharer's grant. Grants from other sharers on the
	// same resource/recipient are untouched.
	// Returns ErrShareNotFound when no such grant exists.
	Revoke(ctx context.Context, resourceType models.ResourceType, resourceID, sharedByID, sharedWithID uuid.UUID) error

	// ListForUser returns every grant where the user is the recipient.
	ListForUser(ctx context.Context, sharedWithID uuid.UUID) ([]*models.SharedAccess, error)

	// ListForResource returns every grant on a resource.
	ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) ([]*models.SharedAccess, error)
}
