package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Sentinel errors for application store operations
var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationAlreadyExists = errors.New("application already exists for this vacancy and entity")
)

// ApplicationStore defines the interface for vacancy application storage.
//
// Stage writes are the trigger points for the status derivation: Create and
// ChangeStage both recompute the owning entity's canonical status from the
// full stage set inside the same transaction as the stage write, so a crash
// between the two can never leave status stale.
type ApplicationStore interface {
	// Create inserts a new application and recomputes the entity's status.
	// Returns ErrApplicationAlreadyExists when the (vacancy_id, entity_id)
	// pair is already taken, and ErrEntityNotFound when the entity is gone.
	Create(ctx context.Context, app *models.VacancyApplication) (*models.Entity, error)

	// Get retrieves an application by ID.
	Get(ctx context.Context, applicationID uuid.UUID) (*models.VacancyApplication, error)

	// ChangeStage moves an application to a new stage and recomputes the
	// owning entity's status, returning the entity as committed. Concurrent
	// stage changes on the same entity serialize on the entity row; a loser
	// surfaces ErrVersionConflict for the caller to retry.
	ChangeStage(ctx context.Context, applicationID uuid.UUID, stage models.Stage) (*models.Entity, error)

	// ListByEntity returns the entity's non-deleted applications.
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.VacancyApplication, error)

	// RecomputeStatus re-derives the entity's status from its current
	// applications and persists it only when it changed. Used by the
	// one-time backfill pass over historical data. Returns the entity and
	// whether a write happened.
	RecomputeStatus(ctx context.Context, entityID uuid.UUID) (*models.Entity, bool, error)

	// Delete soft-deletes an application and recomputes the entity's status.
	Delete(ctx context.Context, applicationID uuid.UUID) (*models.Entity, error)
}
