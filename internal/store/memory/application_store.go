package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// ApplicationStore implements store.ApplicationStore using in-memory
// storage. Stage writes and the status recompute happen under the same lock.
type ApplicationStore struct {
	st *state
}

// Create inserts a new application and recomputes the entity's status.
func (s *ApplicationStore) Create(ctx context.Context, app *models.VacancyApplication) (*models.Entity, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	entity, exists := s.st.entities[app.EntityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	for _, existing := range s.st.applications {
		if existing.VacancyID == app.VacancyID && existing.EntityID == app.EntityID && !existing.IsDeleted() {
			return nil, store.ErrApplicationAlreadyExists
		}
	}

	clone := cloneApplication(app)
	now := s.st.now()
	clone.LastStageChangeAt = now
	clone.CreatedAt = now
	clone.UpdatedAt = now
	s.st.applications[app.ApplicationID] = clone

	s.st.recomputeLocked(entity)

	return cloneEntity(entity), nil
}

// Get retrieves an application by ID.
func (s *ApplicationStore) Get(ctx context.Context, applicationID uuid.UUID) (*models.VacancyApplication, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	app, exists := s.st.applications[applicationID]
	if !exists {
		return nil, store.ErrApplicationNotFound
	}

	return cloneApplication(app), nil
}

// ChangeStage moves an application to a new stage and recomputes the owning
// entity's status atomically.
func (s *ApplicationStore) ChangeStage(ctx context.Context, applicationID uuid.UUID, stage models.Stage) (*models.Entity, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	app, exists := s.st.applications[applicationID]
	if !exists || app.IsDeleted() {
		return nil, store.ErrApplicationNotFound
	}

	entity, exists := s.st.entities[app.EntityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	now := s.st.now()
	app.Stage = stage
	app.LastStageChangeAt = now
	app.UpdatedAt = now

	s.st.recomputeLocked(entity)

	return cloneEntity(entity), nil
}

// ListByEntity returns the entity's non-deleted applications.
func (s *ApplicationStore) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.VacancyApplication, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var result []*models.VacancyApplication
	for _, app := range s.st.applications {
		if app.EntityID != entityID || app.IsDeleted() {
			continue
		}
		result = append(result, cloneApplication(app))
	}

	return result, nil
}

// RecomputeStatus re-derives the entity's status and persists it only when
// it changed.
func (s *ApplicationStore) RecomputeStatus(ctx context.Context, entityID uuid.UUID) (*models.Entity, bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	entity, exists := s.st.entities[entityID]
	if !exists {
		return nil, false, store.ErrEntityNotFound
	}

	changed := s.st.recomputeLocked(entity)
	return cloneEntity(entity), changed, nil
}

// Delete soft-deletes an application and recomputes the entity's status.
func (s *ApplicationStore) Delete(ctx context.Context, applicationID uuid.UUID) (*models.Entity, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	app, exists := s.st.applications[applicationID]
	if !exists || app.IsDeleted() {
		return nil, store.ErrApplicationNotFound
	}

	entity, exists := s.st.entities[app.EntityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	now := s.st.now()
	app.DeletedAt = &now
	app.UpdatedAt = now

	s.st.recomputeLocked(entity)

	return cloneEntity(entity), nil
}
