package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	st *state
}

// Create creates a new user.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, exists := s.st.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}

	s.st.users[user.UserID] = cloneUser(user)
	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	user, exists := s.st.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	return cloneUser(user), nil
}

// ListByOrg returns all users in an organization.
func (s *UserStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.User, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var result []*models.User
	for _, u := range s.st.users {
		if u.OrgID == orgID {
			result = append(result, cloneUser(u))
		}
	}

	return result, nil
}

// ListSuperadmins returns every superadmin account, main and shadow.
func (s *UserStore) ListSuperadmins(ctx context.Context) ([]*models.User, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var result []*models.User
	for _, u := range s.st.users {
		if u.Role == models.RoleSuperadmin {
			result = append(result, cloneUser(u))
		}
	}

	return result, nil
}
