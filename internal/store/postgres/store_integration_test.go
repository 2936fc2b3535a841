//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString:  connString,
		AutoMigrate: true, // Enable migrations for tests
	})
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func createCandidate(t *testing.T, ctx context.Context, entities *EntityStore) *models.Entity {
	t.Helper()

	entity := &models.Entity{
		EntityID:     uuid.Must(uuid.NewV7()),
		OrgID:        uuid.Must(uuid.NewV7()),
		DepartmentID: uuid.Must(uuid.NewV7()),
		Kind:         models.EntityKindCandidate,
		Name:         "Sam Rivera",
		Emails:       []string{"sam.rivera@example.com"},
		Status:       models.StatusNew,
		CreatedBy:    uuid.Must(uuid.NewV7()),
		AssigneeID:   uuid.Must(uuid.NewV7()),
	}
	require.NoError(t, entities.Create(ctx, entity))

	created, err := entities.Get(ctx, entity.EntityID)
	require.NoError(t, err)
	return created
}

func TestIntegration_StageStatusSync(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	entities := NewEntityStore(pool)
	applications := NewApplicationStore(pool)

	t.Run("create application recomputes status", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		app := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageScreening,
		}

		updated, err := applications.Create(ctx, app)
		require.NoError(t, err)
		require.Equal(t, models.StatusScreening, updated.Status)
		require.Greater(t, updated.Version, entity.Version)
	})

	t.Run("duplicate vacancy entity pair rejected", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		app := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageApplied,
		}
		_, err := applications.Create(ctx, app)
		require.NoError(t, err)

		dup := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     app.VacancyID,
			EntityID:      entity.EntityID,
			Stage:         models.StageApplied,
		}
		_, err = applications.Create(ctx, dup)
		require.ErrorIs(t, err, store.ErrApplicationAlreadyExists)
	})

	t.Run("highest priority non-terminal stage wins", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		onHold := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageInterview,
		}
		_, err := applications.Create(ctx, onHold)
		require.NoError(t, err)

		rejected := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageApplied,
		}
		_, err = applications.Create(ctx, rejected)
		require.NoError(t, err)

		updated, err := applications.ChangeStage(ctx, rejected.ApplicationID, models.StageRejected)
		require.NoError(t, err)
		require.Equal(t, models.StatusTechPractice, updated.Status)
	})

	t.Run("hired dominates everything", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		offer := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageOffer,
		}
		_, err := applications.Create(ctx, offer)
		require.NoError(t, err)

		hired := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageHired,
		}
		updated, err := applications.Create(ctx, hired)
		require.NoError(t, err)
		require.Equal(t, models.StatusHired, updated.Status)
	})

	t.Run("delete application recomputes from remaining stages", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		assessment := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageAssessment,
		}
		_, err := applications.Create(ctx, assessment)
		require.NoError(t, err)

		applied := &models.VacancyApplication{
			ApplicationID: uuid.Must(uuid.NewV7()),
			VacancyID:     uuid.Must(uuid.NewV7()),
			EntityID:      entity.EntityID,
			Stage:         models.StageApplied,
		}
		_, err = applications.Create(ctx, applied)
		require.NoError(t, err)

		updated, err := applications.Delete(ctx, assessment.ApplicationID)
		require.NoError(t, err)
		require.Equal(t, models.StatusNew, updated.Status)
	})
}

func TestIntegration_OptimisticLocking(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	entities := NewEntityStore(pool)

	t.Run("stale version rejected", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		entity.Notes = "first writer"
		require.NoError(t, entities.Update(ctx, entity, entity.Version))

		stale := *entity
		stale.Notes = "second writer"
		err := entities.Update(ctx, &stale, entity.Version)
		require.ErrorIs(t, err, store.ErrVersionConflict)

		fresh, err := entities.Get(ctx, entity.EntityID)
		require.NoError(t, err)
		require.Equal(t, "first writer", fresh.Notes)
	})
}

func TestIntegration_TransferLifecycle(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	entities := NewEntityStore(pool)
	transfers := NewTransferStore(pool)

	t.Run("initiate cancel restores ownership but keeps edits", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)
		newOwner := uuid.Must(uuid.NewV7())

		transfer, err := transfers.Initiate(ctx, entity.EntityID, newOwner, time.Hour)
		require.NoError(t, err)
		require.Equal(t, entity.EntityID, transfer.EntityID)
		require.Equal(t, newOwner, transfer.ToUserID)

		moved, err := entities.Get(ctx, entity.EntityID)
		require.NoError(t, err)
		require.True(t, moved.IsTransferred)
		require.Equal(t, newOwner, moved.AssigneeID)

		// Content edit under the new owner
		moved.Notes = "edited after transfer"
		require.NoError(t, entities.Update(ctx, moved, moved.Version))

		restored, err := transfers.Cancel(ctx, transfer.TransferID)
		require.NoError(t, err)
		require.Equal(t, entity.AssigneeID, restored.AssigneeID)
		require.Equal(t, entity.DepartmentID, restored.DepartmentID)
		require.False(t, restored.IsTransferred)
		require.Equal(t, "edited after transfer", restored.Notes)
	})

	t.Run("double initiate rejected while pending", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		_, err := transfers.Initiate(ctx, entity.EntityID, uuid.Must(uuid.NewV7()), time.Hour)
		require.NoError(t, err)

		_, err = transfers.Initiate(ctx, entity.EntityID, uuid.Must(uuid.NewV7()), time.Hour)
		require.ErrorIs(t, err, store.ErrTransferPending)
	})

	t.Run("cancel past deadline rejected on the database clock", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		// A window short enough to lapse during the test.
		transfer, err := transfers.Initiate(ctx, entity.EntityID, uuid.Must(uuid.NewV7()), time.Second)
		require.NoError(t, err)

		time.Sleep(1500 * time.Millisecond)

		_, err = transfers.Cancel(ctx, transfer.TransferID)
		require.ErrorIs(t, err, store.ErrTransferWindowExpired)

		_, err = transfers.GetPendingForEntity(ctx, entity.EntityID)
		require.ErrorIs(t, err, store.ErrTransferNotFound)
	})

	t.Run("double cancel rejected", func(t *testing.T) {
		entity := createCandidate(t, ctx, entities)

		transfer, err := transfers.Initiate(ctx, entity.EntityID, uuid.Must(uuid.NewV7()), time.Hour)
		require.NoError(t, err)

		_, err = transfers.Cancel(ctx, transfer.TransferID)
		require.NoError(t, err)

		_, err = transfers.Cancel(ctx, transfer.TransferID)
		require.ErrorIs(t, err, store.ErrTransferClosed)
	})
}

func TestIntegration_SharesAndUsers(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	users := NewUserStore(pool)
	shares := NewShareStore(pool)

	t.Run("grant unique on all four key fields", func(t *testing.T) {
		resourceID := uuid.Must(uuid.NewV7())
		recipient := uuid.Must(uuid.NewV7())
		firstSharer := uuid.Must(uuid.NewV7())
		secondSharer := uuid.Must(uuid.NewV7())

		first := &models.SharedAccess{
			ShareID:      uuid.Must(uuid.NewV7()),
			ResourceType: models.ResourceTypeEntity,
			ResourceID:   resourceID,
			SharedByID:   firstSharer,
			SharedWithID: recipient,
			Level:        models.AccessLevelView,
		}
		require.NoError(t, shares.Grant(ctx, first))

		// Same resource and recipient from a different sharer is a new grant.
		second := &models.SharedAccess{
			ShareID:      uuid.Must(uuid.NewV7()),
			ResourceType: models.ResourceTypeEntity,
			ResourceID:   resourceID,
			SharedByID:   secondSharer,
			SharedWithID: recipient,
			Level:        models.AccessLevelEdit,
		}
		require.NoError(t, shares.Grant(ctx, second))

		dup := &models.SharedAccess{
			ShareID:      uuid.Must(uuid.NewV7()),
			ResourceType: models.ResourceTypeEntity,
			ResourceID:   resourceID,
			SharedByID:   firstSharer,
			SharedWithID: recipient,
			Level:        models.AccessLevelFull,
		}
		require.ErrorIs(t, shares.Grant(ctx, dup), store.ErrShareAlreadyExists)

		require.NoError(t, shares.Revoke(ctx, models.ResourceTypeEntity, resourceID, firstSharer, recipient))

		remaining, err := shares.ListForUser(ctx, recipient)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		require.Equal(t, secondSharer, remaining[0].SharedByID)
	})

	t.Run("list superadmins returns main and shadow", func(t *testing.T) {
		orgID := uuid.Must(uuid.NewV7())

		main := &models.User{
			UserID: uuid.Must(uuid.NewV7()),
			OrgID:  orgID,
			Name:   "Alex Chen",
			Email:  "alex.chen@example.com",
			Role:   models.RoleSuperadmin,
		}
		require.NoError(t, users.Create(ctx, main))

		shadow := &models.User{
			UserID:        uuid.Must(uuid.NewV7()),
			OrgID:         orgID,
			Name:          "Alex Chen (ops)",
			Email:         "alex.chen+ops@example.com",
			Role:          models.RoleSuperadmin,
			IsShadow:      true,
			ShadowOwnerID: &main.UserID,
		}
		require.NoError(t, users.Create(ctx, shadow))

		member := &models.User{
			UserID: uuid.Must(uuid.NewV7()),
			OrgID:  orgID,
			Name:   "Jordan Kim",
			Email:  "jordan.kim@example.com",
			Role:   models.RoleMember,
		}
		require.NoError(t, users.Create(ctx, member))

		supers, err := users.ListSuperadmins(ctx)
		require.NoError(t, err)

		ids := make(map[uuid.UUID]bool, len(supers))
		for _, u := range supers {
			ids[u.UserID] = true
		}
		require.True(t, ids[main.UserID])
		require.True(t, ids[shadow.UserID])
		require.False(t, ids[member.UserID])
	})
}
