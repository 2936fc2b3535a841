package models

import (
	"time"

	"github.com/google/uuid"
)

// TransferState describes where a transfer sits in its lifecycle.
type TransferState string

const (
	TransferStatePending   TransferState = "pending"   // within the cancel window
	TransferStateCancelled TransferState = "cancelled" // rolled back to the original owner
	TransferStateFinalized TransferState = "finalized" // window elapsed without cancellation
)

// EntityTransfer records a move of an entity's ownership from one user to
// another. A frozen snapshot entity (CopyEntityID) is created at transfer
// time so a cancellation can restore ownership fields without clobbering
// concurrent edits made under the new owner.
type EntityTransfer struct {
	TransferID uuid.UUID // UUIDv7
	EntityID   uuid.UUID

	FromUserID uuid.UUID
	ToUserID   uuid.UUID

	// CopyEntityID points at the frozen snapshot row. Audit/rollback
	// reference only, never a live replacement.
	CopyEntityID uuid.UUID

	CancelDeadline time.Time
	CancelledAt    *time.Time

	CreatedAt time.Time
}

// StateAt returns the transfer's state as of the given instant. The instant
// must come from the same clock that produced CancelDeadline (the database
// server's, in the persistent stores).
func (t *EntityTransfer) StateAt(now time.Time) TransferState {
	if t.CancelledAt != nil {
		return TransferStateCancelled
	}
	if now.After(t.CancelDeadline) {
		return TransferStateFinalized
	}
	return TransferStatePending
}
