package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// ShareStore implements store.ShareStore using in-memory storage.
type ShareStore struct {
	st *state
}

func keyOf(share *models.SharedAccess) shareKey {
	return shareKey{
		resourceType: share.ResourceType,
		resourceID:   share.ResourceID,
		sharedByID:   share.SharedByID,
		sharedWithID: share.SharedWithID,
	}
}

// Grant creates a new share.
func (s *ShareStore) Grant(ctx context.Context, share *models.SharedAccess) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	key := keyOf(share)
	if _, exists := s.st.shares[key]; exists {
		return store.ErrShareAlreadyExists
	}

	clone := cloneShare(share)
	clone.CreatedAt = s.st.now()
	s.st.shares[key] = clone
	share.CreatedAt = clone.CreatedAt

	return nil
}

// Revoke removes one sharer's grant.
func (s *ShareStore) Revoke(ctx context.Context, resourceType models.ResourceType, resourceID, sharedByID, sharedWithID uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	key := shareKey{
		resourceType: resourceType,
		resourceID:   resourceID,
		sharedByID:   sharedByID,
		sharedWithID: sharedWithID,
	}

	if _, exists := s.st.shares[key]; !exists {
		return store.ErrShareNotFound
	}

	delete(s.st.shares, key)
	return nil
}

// ListForUser returns every grant where the user is the recipient.
func (s *ShareStore) ListForUser(ctx context.Context, sharedWithID uuid.UUID) ([]*models.SharedAccess, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var result []*models.SharedAccess
	for _, share := range s.st.shares {
		if share.SharedWithID == sharedWithID {
			result = append(result, cloneShare(share))
		}
	}

	return result, nil
}

// ListForResource returns every grant on a resource.
func (s *ShareStore) ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) ([]*models.SharedAccess, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var result []*models.SharedAccess
	for _, share := range s.st.shares {
		if share.ResourceType == resourceType && share.ResourceID == resourceID {
			result = append(result, cloneShare(share))
		}
	}

	return result, nil
}
