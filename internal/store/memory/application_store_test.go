package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

func newCandidate(t *testing.T, st *Store) *models.Entity {
	t.Helper()

	entity := &models.Entity{
		EntityID:   uuid.Must(uuid.NewV7()),
		OrgID:      uuid.Must(uuid.NewV7()),
		Kind:       models.EntityKindCandidate,
		Name:       "Sam Rivera",
		Status:     models.StatusNew,
		CreatedBy:  uuid.Must(uuid.NewV7()),
		AssigneeID: uuid.Must(uuid.NewV7()),
	}
	require.NoError(t, st.Entities.Create(context.Background(), entity))
	return entity
}

func newApplication(t *testing.T, st *Store, entityID uuid.UUID, stage models.Stage) *models.VacancyApplication {
	t.Helper()

	app := &models.VacancyApplication{
		ApplicationID: uuid.Must(uuid.NewV7()),
		VacancyID:     uuid.Must(uuid.NewV7()),
		EntityID:      entityID,
		Stage:         stage,
	}
	_, err := st.Applications.Create(context.Background(), app)
	require.NoError(t, err)
	return app
}

func TestApplicationStore_Create(t *testing.T) {
	t.Run("create recomputes entity status", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)

		app := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageScreening,
		}

		updated, err := st.Applications.Create(ctx, app)
		require.NoError(t, err)
		require.Equal(t, models.StatusScreening, updated.Status)
	})

	t.Run("duplicate vacancy entity pair rejected", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)
		app := newApplication(t, st, entity.EntityID, models.StageApplied)

		dup := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     app.VacancyID,
			EntityID:      entity.EntityID,
			Stage:         models.StageApplied,
		}

		_, err := st.Applications.Create(ctx, dup)
		require.ErrorIs(t, err, store.ErrApplicationAlreadyExists)
	})

	t.Run("unknown entity rejected", func(t *testing.T) {
		st := NewStore()

		app := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      uuid.Must(uuid.NewV7()),
			Stage:         models.StageApplied,
		}

		_, err := st.Applications.Create(context.Background(), app)
		require.ErrorIs(t, err, store.ErrEntityNotFound)
	})
}

func TestApplicationStore_ChangeStage(t *testing.T) {
	t.Run("interview dominates rejected", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)

		app1 := newApplication(t, st, entity.EntityID, models.StageApplied)
		app2 := newApplication(t, st, entity.EntityID, models.StageApplied)

		_, err := st.Applications.ChangeStage(ctx, app1.ApplicationID, models.StageInterview)
		require.NoError(t, err)

		updated, err := st.Applications.ChangeStage(ctx, app2.ApplicationID, models.StageRejected)
		require.NoError(t, err)
		require.Equal(t, models.StatusTechPractice, updated.Status)
	})

	t.Run("hired dominates offer", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)

		app1 := newApplication(t, st, entity.EntityID, models.StageApplied)
		app2 := newApplication(t, st, entity.EntityID, models.StageApplied)

		_, err := st.Applications.ChangeStage(ctx, app1.ApplicationID, models.StageOffer)
		require.NoError(t, err)

		updated, err := st.Applications.ChangeStage(ctx, app2.ApplicationID, models.StageHired)
		require.NoError(t, err)
		require.Equal(t, models.StatusHired, updated.Status)
	})

	t.Run("all terminal resolves to rejected", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)

		app1 := newApplication(t, st, entity.EntityID, models.StageApplied)
		app2 := newApplication(t, st, entity.EntityID, models.StageApplied)

		_, err := st.Applications.ChangeStage(ctx, app1.ApplicationID, models.StageRejected)
		require.NoError(t, err)

		updated, err := st.Applications.ChangeStage(ctx, app2.ApplicationID, models.StageWithdrawn)
		require.NoError(t, err)
		require.Equal(t, models.StatusRejected, updated.Status)
	})

	t.Run("stage change on one application never flips another", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)

		app1 := newApplication(t, st, entity.EntityID, models.StageApplied)
		app2 := newApplication(t, st, entity.EntityID, models.StageScreening)

		_, err := st.Applications.ChangeStage(ctx, app1.ApplicationID, models.StageHired)
		require.NoError(t, err)

		other, err := st.Applications.Get(ctx, app2.ApplicationID)
		require.NoError(t, err)
		require.Equal(t, models.StageScreening, other.Stage)
	})

	t.Run("contact entities are not auto-synced", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()

		entity := &models.Entity{
			EntityID: uuid.Must(uuid.NewV7()),
			OrgID:    uuid.Must(uuid.NewV7()),
			Kind:     models.EntityKindContact,
			Status:   models.StatusNew,
		}
		require.NoError(t, st.Entities.Create(ctx, entity))
		app := newApplication(t, st, entity.EntityID, models.StageApplied)

		updated, err := st.Applications.ChangeStage(ctx, app.ApplicationID, models.StageHired)
		require.NoError(t, err)
		require.Equal(t, models.StatusNew, updated.Status)
	})

	t.Run("stage change bumps entity version", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		entity := newCandidate(t, st)
		app := newApplication(t, st, entity.EntityID, models.StageApplied)

		before, err := st.Entities.Get(ctx, entity.EntityID)
		require.NoError(t, err)

		updated, err := st.Applications.ChangeStage(ctx, app.ApplicationID, models.StageInterview)
		require.NoError(t, err)
		require.Greater(t, updated.Version, before.Version)
	})
}

func TestApplicationStore_Delete(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	entity := newCandidate(t, st)

	app1 := newApplication(t, st, entity.EntityID, models.StageApplied)
	app2 := newApplication(t, st, entity.EntityID, models.StageApplied)

	_, err := st.Applications.ChangeStage(ctx, app1.ApplicationID, models.StageAssessment)
	require.NoError(t, err)

	// Dropping the assessment application leaves the applied one in charge.
	updated, err := st.Applications.Delete(ctx, app1.ApplicationID)
	require.NoError(t, err)
	require.Equal(t, models.StatusNew, updated.Status)

	apps, err := st.Applications.ListByEntity(ctx, entity.EntityID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, app2.ApplicationID, apps[0].ApplicationID)
}

func TestApplicationStore_RecomputeStatus(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	entity := newCandidate(t, st)
	newApplication(t, st, entity.EntityID, models.StageOffer)

	updated, changed, err := st.Applications.RecomputeStatus(ctx, entity.EntityID)
	require.NoError(t, err)
	require.False(t, changed, "create already synced the status")
	require.Equal(t, models.StatusOffer, updated.Status)

	// Second pass is a no-op too.
	_, changed, err = st.Applications.RecomputeStatus(ctx, entity.EntityID)
	require.NoError(t, err)
	require.False(t, changed)
}
