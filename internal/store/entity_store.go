package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Sentinel errors for entity store operations
var (
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// ErrVersionConflict signals an optimistic-lock mismatch: the caller's
	// expected version no longer matches the stored row. The caller decides
	// whether to retry against fresh state or abort.
	ErrVersionConflict = errors.New("entity version conflict")
)

// EntityStore defines the interface for entity (candidate/contact) storage.
// All mutations are compare-and-swap on the entity's version column; a
// mismatch returns ErrVersionConflict, never a silent overwrite.
type EntityStore interface {
	// Create creates a new entity.
	// Returns ErrEntityAlreadyExists if the entity id is already taken.
	Create(ctx context.Context, entity *models.Entity) error

	// Get retrieves an entity by ID, including soft-deleted rows.
	// Returns ErrEntityNotFound if the entity doesn't exist.
	Get(ctx context.Context, entityID uuid.UUID) (*models.Entity, error)

	// Update persists the entity's mutable fields if the stored version
	// still equals expectedVersion, bumping the version on success.
	// Returns ErrVersionConflict on a mismatch.
	Update(ctx context.Context, entity *models.Entity, expectedVersion int64) error

	// SetStatus writes just the canonical status. Used by the backfill pass;
	// stage-change writes go through ApplicationStore so the recompute stays
	// inside the same transaction.
	SetStatus(ctx context.Context, entityID uuid.UUID, status models.Status) error

	// List returns non-deleted entities matching the filter options.
	List(ctx context.Context, opts ListEntitiesOptions) ([]*models.Entity, error)

	// Delete soft-deletes an entity.
	Delete(ctx context.Context, entityID uuid.UUID) error
}

// ListEntitiesOptions specifies filters for listing entities.
type ListEntitiesOptions struct {
	OrgID uuid.UUID // required
	Kind  string    // filter by kind (empty = all)

	// ExcludeCreatedBy drops rows created by the given users. Populated
	// from the visibility resolver's isolated-creator set so superadmin
	// isolation is applied inside the query, before pagination.
	ExcludeCreatedBy []uuid.UUID

	Limit int // max results (0 = default of 100, negative = no limit)
}
