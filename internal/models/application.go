package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the per-application pipeline position. Applications move forward
// through the ordered stages and terminate in hired, rejected or withdrawn.
type Stage string

const (
	StageApplied     Stage = "applied"
	StageScreening   Stage = "screening"
	StagePhoneScreen Stage = "phone_screen"
	StageInterview   Stage = "interview"
	StageAssessment  Stage = "assessment"
	StageOffer       Stage = "offer"
	StageHired       Stage = "hired"
	StageRejected    Stage = "rejected"
	StageWithdrawn   Stage = "withdrawn"
)

// IsTerminal returns true for stages that take an application out of the
// active pipeline.
func (s Stage) IsTerminal() bool {
	return s == StageRejected || s == StageWithdrawn
}

// VacancyApplication links one entity to one vacancy and tracks its progress
// through the hiring pipeline. Unique per (vacancy_id, entity_id).
type VacancyApplication struct {
	ApplicationID uuid.UUID // UUIDv7
	VacancyID     uuid.UUID
	EntityID      uuid.UUID

	Stage      Stage
	StageOrder int

	LastStageChangeAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // soft delete
}

// IsDeleted returns true if the application has been soft-deleted.
func (a *VacancyApplication) IsDeleted() bool {
	return a.DeletedAt != nil
}
