package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/pipeline"
	"github.com/hirekit/hirekit/internal/store"
)

// ApplicationStore implements store.ApplicationStore using PostgreSQL.
//
// Every stage write and the derived status write share one transaction with
// the entity row locked FOR UPDATE, so concurrent stage changes on the same
// entity serialize and a crash can never leave status stale relative to the
// committed stage set.
type ApplicationStore struct {
	pool *pgxpool.Pool
}

// NewApplicationStore creates a new PostgreSQL-backed application store.
// It shares the connection pool with other stores.
func NewApplicationStore(pool *pgxpool.Pool) *ApplicationStore {
	return &ApplicationStore{
		pool: pool,
	}
}

const applicationColumns = `
	application_id, vacancy_id, entity_id,
	stage, stage_order, last_stage_change_at,
	created_at, updated_at, deleted_at
`

func scanApplication(row rowScanner) (*models.VacancyApplication, error) {
	var a models.VacancyApplication
	err := row.Scan(
		&a.ApplicationID,
		&a.VacancyID,
		&a.EntityID,
		&a.Stage,
		&a.StageOrder,
		&a.LastStageChangeAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new application and recomputes the entity's status in
// the same transaction.
func (s *ApplicationStore) Create(ctx context.Context, app *models.VacancyApplication) (*models.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	entity, err := lockEntity(ctx, tx, app.EntityID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO vacancy_applications (
			application_id, vacancy_id, entity_id, stage, stage_order
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err = tx.Exec(ctx, query,
		app.ApplicationID,
		app.VacancyID,
		app.EntityID,
		app.Stage,
		app.StageOrder,
	)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := recomputeStatusTx(ctx, tx, entity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	log.Info().
		Str("application_id", app.ApplicationID.String()).
		Str("entity_id", app.EntityID.String()).
		Str("stage", string(app.Stage)).
		Msg("Created application")

	return entity, nil
}

// Get retrieves an application by ID.
func (s *ApplicationStore) Get(ctx context.Context, applicationID uuid.UUID) (*models.VacancyApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM vacancy_applications WHERE application_id = $1`

	app, err := scanApplication(s.pool.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrApplicationNotFound
		}
		return nil, mapPostgresError(err)
	}

	return app, nil
}

// ChangeStage moves an application to a new stage and recomputes the owning
// entity's status atomically.
func (s *ApplicationStore) ChangeStage(ctx context.Context, applicationID uuid.UUID, stage models.Stage) (*models.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var entityID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT entity_id FROM vacancy_applications
		WHERE application_id = $1 AND deleted_at IS NULL
	`, applicationID).Scan(&entityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrApplicationNotFound
		}
		return nil, mapPostgresError(err)
	}

	entity, err := lockEntity(ctx, tx, entityID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE vacancy_applications
		SET stage = $1, last_stage_change_at = NOW(), updated_at = NOW()
		WHERE application_id = $2
	`, stage, applicationID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := recomputeStatusTx(ctx, tx, entity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	log.Info().
		Str("application_id", applicationID.String()).
		Str("entity_id", entityID.String()).
		Str("stage", string(stage)).
		Str("status", string(entity.Status)).
		Msg("Changed application stage")

	return entity, nil
}

// ListByEntity returns the entity's non-deleted applications.
func (s *ApplicationStore) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.VacancyApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM vacancy_applications
		WHERE entity_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var apps []*models.VacancyApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return apps, nil
}

// RecomputeStatus re-derives the entity's status from its current
// applications and persists it only when it changed.
func (s *ApplicationStore) RecomputeStatus(ctx context.Context, entityID uuid.UUID) (*models.Entity, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	entity, err := lockEntity(ctx, tx, entityID)
	if err != nil {
		return nil, false, err
	}

	before := entity.Status
	if err := recomputeStatusTx(ctx, tx, entity); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, mapPostgresError(err)
	}

	return entity, entity.Status != before, nil
}

// Delete soft-deletes an application and recomputes the entity's status.
func (s *ApplicationStore) Delete(ctx context.Context, applicationID uuid.UUID) (*models.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var entityID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT entity_id FROM vacancy_applications
		WHERE application_id = $1 AND deleted_at IS NULL
	`, applicationID).Scan(&entityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrApplicationNotFound
		}
		return nil, mapPostgresError(err)
	}

	entity, err := lockEntity(ctx, tx, entityID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE vacancy_applications
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE application_id = $1
	`, applicationID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := recomputeStatusTx(ctx, tx, entity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	return entity, nil
}

// lockEntity selects the entity row FOR UPDATE, serializing concurrent
// stage changes and transfers touching the same entity.
func lockEntity(ctx context.Context, tx pgx.Tx, entityID uuid.UUID) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE entity_id = $1 FOR UPDATE`

	entity, err := scanEntity(tx.QueryRow(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEntityNotFound
		}
		return nil, mapPostgresError(err)
	}

	return entity, nil
}

// recomputeStatusTx derives the entity's status from the stage set as seen
// inside the transaction and writes it when it changed, mutating entity to
// the committed values. The entity row must already be locked.
func recomputeStatusTx(ctx context.Context, tx pgx.Tx, entity *models.Entity) error {
	if !entity.PipelineEligible() {
		return nil
	}

	rows, err := tx.Query(ctx, `
		SELECT stage FROM vacancy_applications
		WHERE entity_id = $1 AND deleted_at IS NULL
	`, entity.EntityID)
	if err != nil {
		return mapPostgresError(err)
	}
	defer rows.Close()

	var stages []models.Stage
	for rows.Next() {
		var stage models.Stage
		if err := rows.Scan(&stage); err != nil {
			return mapPostgresError(err)
		}
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return mapPostgresError(err)
	}

	status, ok := pipeline.DeriveStatus(entity.Status, stages)
	if !ok || status == entity.Status {
		return nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE entities
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE entity_id = $2
	`, status, entity.EntityID)
	if err != nil {
		return mapPostgresError(err)
	}

	entity.Status = status
	entity.Version++

	return nil
}
