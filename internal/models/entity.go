package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind distinguishes pipeline-eligible candidates from plain contacts.
// Only candidates have their status derived from application stages.
const (
	EntityKindCandidate = "candidate"
	EntityKindContact   = "contact"
)

// Status is the entity-level canonical summary of a candidate's position in
// the hiring process, derived from the stages of their vacancy applications.
type Status string

const (
	StatusNew          Status = "new"
	StatusScreening    Status = "screening"
	StatusPractice     Status = "practice"
	StatusTechPractice Status = "tech_practice"
	StatusIsInterview  Status = "is_interview"
	StatusOffer        Status = "offer"
	StatusHired        Status = "hired"
	StatusRejected     Status = "rejected"
)

// Entity represents a candidate/contact record. Entities belong to an
// organization and department, and may be transferred between users with a
// bounded cancellation window.
type Entity struct {
	EntityID     uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	DepartmentID uuid.UUID
	Kind         string // "candidate" or "contact"
	Name         string

	// Identity attributes, stored as sets
	Emails    []string
	Phones    []string
	Usernames []string

	Status Status
	Notes  string

	CreatedBy  uuid.UUID
	AssigneeID uuid.UUID // current owner

	// Transfer tracking
	IsTransferred   bool
	TransferredToID *uuid.UUID
	TransferredAt   *time.Time

	// Optimistic lock token. Every mutation must carry the version it read;
	// a mismatch on write is a conflict, never a silent overwrite.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // soft delete
}

// IsDeleted returns true if the entity has been soft-deleted.
func (e *Entity) IsDeleted() bool {
	return e.DeletedAt != nil
}

// PipelineEligible returns true if the entity's status is derived from its
// application stages.
func (e *Entity) PipelineEligible() bool {
	return e.Kind == EntityKindCandidate
}

// OwnershipSnapshot is the allow-listed field subset restored when a
// transfer is cancelled. Content fields (name, notes, status, applications)
// are deliberately absent: edits made under the new owner are real work and
// must survive a rollback.
type OwnershipSnapshot struct {
	OrgID        uuid.UUID
	DepartmentID uuid.UUID
	AssigneeID   uuid.UUID
}

// Ownership returns the entity's current ownership field subset.
func (e *Entity) Ownership() OwnershipSnapshot {
	return OwnershipSnapshot{
		OrgID:        e.OrgID,
		DepartmentID: e.DepartmentID,
		AssigneeID:   e.AssigneeID,
	}
}
