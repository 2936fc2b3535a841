package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// TransferStore implements store.TransferStore using in-memory storage.
// Deadline checks use the shared state's clock.
type TransferStore struct {
	st *state
}

// Initiate moves the entity's ownership to toUserID, writing a frozen
// snapshot entity first.
func (s *TransferStore) Initiate(ctx context.Context, entityID, toUserID uuid.UUID, window time.Duration) (*models.EntityTransfer, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	entity, exists := s.st.entities[entityID]
	if !exists || entity.IsDeleted() {
		return nil, store.ErrEntityNotFound
	}

	now := s.st.now()
	for _, t := range s.st.transfers {
		if t.EntityID == entityID && t.StateAt(now) == models.TransferStatePending {
			return nil, store.ErrTransferPending
		}
	}

	// Frozen snapshot for audit and selective rollback. Soft-deleted from
	// birth so it never shows up in listings.
	snapshot := cloneEntity(entity)
	snapshot.EntityID = uuid.Must(uuid.NewV7())
	snapshot.DeletedAt = &now
	s.st.entities[snapshot.EntityID] = snapshot

	transfer := &models.EntityTransfer{
		TransferID:     uuid.Must(uuid.NewV7()),
		EntityID:       entityID,
		FromUserID:     entity.AssigneeID,
		ToUserID:       toUserID,
		CopyEntityID:   snapshot.EntityID,
		CancelDeadline: now.Add(window),
		CreatedAt:      now,
	}
	s.st.transfers[transfer.TransferID] = transfer

	entity.AssigneeID = toUserID
	entity.IsTransferred = true
	entity.TransferredToID = &toUserID
	entity.TransferredAt = &now
	entity.Version++
	entity.UpdatedAt = now

	return cloneTransfer(transfer), nil
}

// Cancel rolls the transfer back, restoring only the ownership fields from
// the snapshot.
func (s *TransferStore) Cancel(ctx context.Context, transferID uuid.UUID) (*models.Entity, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	transfer, exists := s.st.transfers[transferID]
	if !exists {
		return nil, store.ErrTransferNotFound
	}

	now := s.st.now()
	switch transfer.StateAt(now) {
	case models.TransferStateCancelled:
		return nil, store.ErrTransferClosed
	case models.TransferStateFinalized:
		return nil, store.ErrTransferWindowExpired
	}

	entity, exists := s.st.entities[transfer.EntityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	snapshot, exists := s.st.entities[transfer.CopyEntityID]
	if !exists {
		return nil, store.ErrEntityNotFound
	}

	transfer.CancelledAt = &now

	// Ownership fields only. Content edited after the transfer stays.
	ownership := snapshot.Ownership()
	entity.OrgID = ownership.OrgID
	entity.DepartmentID = ownership.DepartmentID
	entity.AssigneeID = ownership.AssigneeID
	entity.IsTransferred = false
	entity.TransferredToID = nil
	entity.TransferredAt = nil
	entity.Version++
	entity.UpdatedAt = now

	return cloneEntity(entity), nil
}

// Get retrieves a transfer record by ID.
func (s *TransferStore) Get(ctx context.Context, transferID uuid.UUID) (*models.EntityTransfer, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	transfer, exists := s.st.transfers[transferID]
	if !exists {
		return nil, store.ErrTransferNotFound
	}

	return cloneTransfer(transfer), nil
}

// GetPendingForEntity returns the entity's transfer still inside its cancel
// window.
func (s *TransferStore) GetPendingForEntity(ctx context.Context, entityID uuid.UUID) (*models.EntityTransfer, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	now := s.st.now()
	for _, t := range s.st.transfers {
		if t.EntityID == entityID && t.StateAt(now) == models.TransferStatePending {
			return cloneTransfer(t), nil
		}
	}

	return nil, store.ErrTransferNotFound
}
