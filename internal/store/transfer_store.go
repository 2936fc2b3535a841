package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hirekit/hirekit/internal/models"
)

// Sentinel errors for transfer store operations
var (
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrTransferPending rejects a second transfer initiation while one is
	// still inside its cancel window.
	ErrTransferPending = errors.New("entity already has a pending transfer")

	// ErrTransferWindowExpired rejects a cancellation attempted after the
	// cancel deadline. The transfer is implicitly finalized at that point.
	ErrTransferWindowExpired = errors.New("transfer cancellation window expired")

	// ErrTransferClosed rejects a cancellation of a transfer that was
	// already cancelled.
	ErrTransferClosed = errors.New("transfer already cancelled")
)

// TransferStore governs entity ownership transfers with a bounded, atomic
// cancellation window.
//
// Deadline comparisons happen on the store's clock, not the caller's: the
// PostgreSQL implementation evaluates NOW() server-side so distributed app
// instances can't disagree about whether the window is still open.
type TransferStore interface {
	// Initiate moves the entity's ownership to toUserID. A frozen snapshot
	// entity is written first and referenced from the transfer record so a
	// cancellation can restore ownership fields without touching content
	// edited after the transfer.
	// Returns ErrTransferPending if the entity is already mid-transfer.
	Initiate(ctx context.Context, entityID, toUserID uuid.UUID, window time.Duration) (*models.EntityTransfer, error)

	// Cancel rolls the transfer back, restoring only the ownership fields
	// (org, department, assignee) from the snapshot. Returns the entity as
	// committed. Fails with ErrTransferWindowExpired past the deadline and
	// ErrTransferClosed when already cancelled.
	Cancel(ctx context.Context, transferID uuid.UUID) (*models.Entity, error)

	// Get retrieves a transfer record by ID.
	Get(ctx context.Context, transferID uuid.UUID) (*models.EntityTransfer, error)

	// GetPendingForEntity returns the entity's transfer that is still inside
	// its cancel window, or ErrTransferNotFound when there is none.
	GetPendingForEntity(ctx context.Context, entityID uuid.UUID) (*models.EntityTransfer, error)
}
