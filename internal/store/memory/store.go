// Package memory provides in-memory store implementations for testing.
// Data is lost on restart.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/pipeline"
)

// state is the shared backing storage for all the in-memory stores. A
// single mutex stands in for the database transaction: operations that span
// tables (stage change + status recompute, transfer + snapshot) hold it for
// their whole extent, matching the all-or-nothing semantics of the SQL
// stores.
type state struct {
	mu sync.RWMutex

	entities     map[uuid.UUID]*models.Entity
	applications map[uuid.UUID]*models.VacancyApplication
	transfers    map[uuid.UUID]*models.EntityTransfer
	shares       map[shareKey]*models.SharedAccess
	users        map[uuid.UUID]*models.User

	// now is the store's clock. Tests override it to walk the transfer
	// cancellation window deterministically.
	now func() time.Time
}

type shareKey struct {
	resourceType models.ResourceType
	resourceID   uuid.UUID
	sharedByID   uuid.UUID
	sharedWithID uuid.UUID
}

// Store bundles the in-memory stores over one shared state.
type Store struct {
	Entities     *EntityStore
	Applications *ApplicationStore
	Transfers    *TransferStore
	Shares       *ShareStore
	Users        *UserStore

	st *state
}

// NewStore creates a new in-memory store bundle.
func NewStore() *Store {
	st := &state{
		entities:     make(map[uuid.UUID]*models.Entity),
		applications: make(map[uuid.UUID]*models.VacancyApplication),
		transfers:    make(map[uuid.UUID]*models.EntityTransfer),
		shares:       make(map[shareKey]*models.SharedAccess),
		users:        make(map[uuid.UUID]*models.User),
		now:          time.Now,
	}

	return &Store{
		Entities:     &EntityStore{st: st},
		Applications: &ApplicationStore{st: st},
		Transfers:    &TransferStore{st: st},
		Shares:       &ShareStore{st: st},
		Users:        &UserStore{st: st},
		st:           st,
	}
}

// SetClock replaces the store's clock. Testing only.
func (s *Store) SetClock(now func() time.Time) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.now = now
}

// recomputeLocked derives the entity's status from its live applications.
// Caller must hold the write lock. Returns true when the status changed.
func (st *state) recomputeLocked(entity *models.Entity) bool {
	if !entity.PipelineEligible() {
		return false
	}

	var stages []models.Stage
	for _, app := range st.applications {
		if app.EntityID == entity.EntityID && !app.IsDeleted() {
			stages = append(stages, app.Stage)
		}
	}

	status, ok := pipeline.DeriveStatus(entity.Status, stages)
	if !ok || status == entity.Status {
		return false
	}

	entity.Status = status
	entity.Version++
	entity.UpdatedAt = st.now()
	return true
}

func cloneEntity(e *models.Entity) *models.Entity {
	clone := *e
	clone.Emails = append([]string(nil), e.Emails...)
	clone.Phones = append([]string(nil), e.Phones...)
	clone.Usernames = append([]string(nil), e.Usernames...)
	return &clone
}

func cloneApplication(a *models.VacancyApplication) *models.VacancyApplication {
	clone := *a
	return &clone
}

func cloneTransfer(t *models.EntityTransfer) *models.EntityTransfer {
	clone := *t
	return &clone
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	return &clone
}

func cloneShare(sh *models.SharedAccess) *models.SharedAccess {
	clone := *sh
	return &clone
}
