package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType identifies what kind of record a share grant covers.
type ResourceType string

const (
	ResourceTypeEntity      ResourceType = "entity"
	ResourceTypeChat        ResourceType = "chat"
	ResourceTypeCall        ResourceType = "call"
	ResourceTypeApplication ResourceType = "application"
)

// AccessLevel is the level granted by a share.
type AccessLevel string

const (
	AccessLevelView AccessLevel = "view"
	AccessLevelEdit AccessLevel = "edit"
	AccessLevelFull AccessLevel = "full"
)

// SharedAccess grants one user an access level to one resource on behalf of
// a sharer. Uniqueness is keyed on (resource_type, resource_id,
// shared_by_id, shared_with_id): the same resource can be shared to the same
// recipient by different sharers, and each grant is revoked independently.
type SharedAccess struct {
	ShareID uuid.UUID // UUIDv7

	ResourceType ResourceType
	ResourceID   uuid.UUID

	SharedByID   uuid.UUID
	SharedWithID uuid.UUID

	Level AccessLevel

	CreatedAt time.Time
}
