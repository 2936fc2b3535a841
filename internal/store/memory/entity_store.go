package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// EntityStore implements store.EntityStore using in-memory storage.
type EntityStore struct {
	st *state
}

// Create creates a new entity in memory.
func (s *EntityStore) Create(ctx context.Context, entity *models.Entity) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, exists := s.st.entities[entity.EntityID]; exists {
		return store.ErrEntityAlreadyExists
	}

	clone := cloneEntity(entity)
	if clone.Version == 0 {
		clone.Version = 1
	}
	s.st.entities[entity.EntityID] = clone
	entity.Version = clone.Version

	return nil
}

// Get retrieves an entity by ID.
func (s *EntityStore) Get(ctx context.Context, entityID uuid.UUID) (*models.Entity, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	entity, exists := s.st.entities[entityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	return cloneEntity(entity), nil
}

// Update performs a compare-and-swap write of the entity's mutable fields.
// Ownership and transfer-tracking fields are managed by the transfer store
// and left alone here.
func (s *EntityStore) Update(ctx context.Context, entity *models.Entity, expectedVersion int64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	existing, exists := s.st.entities[entity.EntityID]
	if !exists {
		return store.ErrEntityNotFound
	}

	if existing.Version != expectedVersion {
		return store.ErrVersionConflict
	}

	existing.Name = entity.Name
	existing.Emails = append([]string(nil), entity.Emails...)
	existing.Phones = append([]string(nil), entity.Phones...)
	existing.Usernames = append([]string(nil), entity.Usernames...)
	existing.Status = entity.Status
	existing.Notes = entity.Notes
	existing.DepartmentID = entity.DepartmentID
	existing.Version = expectedVersion + 1
	existing.UpdatedAt = s.st.now()

	return nil
}

// SetStatus writes just the canonical status, bumping the version.
func (s *EntityStore) SetStatus(ctx context.Context, entityID uuid.UUID, status models.Status) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	entity, exists := s.st.entities[entityID]
	if !exists {
		return store.ErrEntityNotFound
	}

	entity.Status = status
	entity.Version++
	entity.UpdatedAt = s.st.now()

	return nil
}

// List returns non-deleted entities matching the filter options.
func (s *EntityStore) List(ctx context.Context, opts store.ListEntitiesOptions) ([]*models.Entity, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	excluded := make(map[uuid.UUID]struct{}, len(opts.ExcludeCreatedBy))
	for _, id := range opts.ExcludeCreatedBy {
		excluded[id] = struct{}{}
	}

	var result []*models.Entity
	for _, e := range s.st.entities {
		if e.OrgID != opts.OrgID || e.IsDeleted() {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if _, skip := excluded[e.CreatedBy]; skip {
			continue
		}
		result = append(result, cloneEntity(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Limit >= 0 {
		limit := 100
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if len(result) > limit {
			result = result[:limit]
		}
	}

	return result, nil
}

// Delete soft-deletes an entity.
func (s *EntityStore) Delete(ctx context.Context, entityID uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	entity, exists := s.st.entities[entityID]
	if !exists || entity.IsDeleted() {
		return store.ErrEntityNotFound
	}

	now := s.st.now()
	entity.DeletedAt = &now
	entity.UpdatedAt = now

	return nil
}
