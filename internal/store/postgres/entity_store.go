package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// EntityStore implements store.EntityStore using PostgreSQL.
type EntityStore struct {
	pool *pgxpool.Pool
}

// NewEntityStore creates a new PostgreSQL-backed entity store.
// It shares the connection pool with other stores.
func NewEntityStore(pool *pgxpool.Pool) *EntityStore {
	return &EntityStore{
		pool: pool,
	}
}

const entityColumns = `
	entity_id, org_id, department_id, kind, name,
	emails, phones, usernames,
	status, notes, created_by, assignee_id,
	is_transferred, transferred_to_id, transferred_at,
	version, created_at, updated_at, deleted_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// prefixedEntityColumns qualifies every entity column with a table alias,
// for queries where the column names would otherwise be ambiguous.
func prefixedEntityColumns(alias string) string {
	cols := strings.Split(entityColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanEntity(row rowScanner) (*models.Entity, error) {
	var e models.Entity
	err := row.Scan(
		&e.EntityID,
		&e.OrgID,
		&e.DepartmentID,
		&e.Kind,
		&e.Name,
		&e.Emails,
		&e.Phones,
		&e.Usernames,
		&e.Status,
		&e.Notes,
		&e.CreatedBy,
		&e.AssigneeID,
		&e.IsTransferred,
		&e.TransferredToID,
		&e.TransferredAt,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create creates a new entity in the database.
func (s *EntityStore) Create(ctx context.Context, entity *models.Entity) error {
	query := `
		INSERT INTO entities (
			entity_id, org_id, department_id, kind, name,
			emails, phones, usernames,
			status, notes, created_by, assignee_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := s.pool.Exec(ctx, query,
		entity.EntityID,
		entity.OrgID,
		entity.DepartmentID,
		entity.Kind,
		entity.Name,
		entity.Emails,
		entity.Phones,
		entity.Usernames,
		entity.Status,
		entity.Notes,
		entity.CreatedBy,
		entity.AssigneeID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEntityAlreadyExists
		}
		return mapPostgresError(err)
	}

	log.Debug().
		Str("entity_id", entity.EntityID.String()).
		Str("kind", entity.Kind).
		Str("org_id", entity.OrgID.String()).
		Msg("Created entity")

	return nil
}

// Get retrieves an entity by ID, including soft-deleted rows.
func (s *EntityStore) Get(ctx context.Context, entityID uuid.UUID) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE entity_id = $1`

	entity, err := scanEntity(s.pool.QueryRow(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEntityNotFound
		}
		return nil, mapPostgresError(err)
	}

	return entity, nil
}

// Update persists the entity's mutable fields with a compare-and-swap on
// the version column. Ownership and transfer-tracking fields are managed by
// the transfer store and left alone here.
func (s *EntityStore) Update(ctx context.Context, entity *models.Entity, expectedVersion int64) error {
	query := `
		UPDATE entities
		SET
			name = $1,
			emails = $2,
			phones = $3,
			usernames = $4,
			status = $5,
			notes = $6,
			department_id = $7,
			version = version + 1,
			updated_at = NOW()
		WHERE entity_id = $8
		  AND version = $9
	`

	result, err := s.pool.Exec(ctx, query,
		entity.Name,
		entity.Emails,
		entity.Phones,
		entity.Usernames,
		entity.Status,
		entity.Notes,
		entity.DepartmentID,
		entity.EntityID,
		expectedVersion,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM entities WHERE entity_id = $1)`, entity.EntityID).Scan(&exists); err != nil {
			return mapPostgresError(err)
		}
		if !exists {
			return store.ErrEntityNotFound
		}
		return fmt.Errorf("%w: expected version %d", store.ErrVersionConflict, expectedVersion)
	}

	entity.Version = expectedVersion + 1

	return nil
}

// SetStatus writes just the canonical status, bumping the version.
func (s *EntityStore) SetStatus(ctx context.Context, entityID uuid.UUID, status models.Status) error {
	query := `
		UPDATE entities
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE entity_id = $2
	`

	result, err := s.pool.Exec(ctx, query, status, entityID)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrEntityNotFound
	}

	return nil
}

// List returns non-deleted entities matching the filter options. The
// isolated-creator exclusion happens inside the query so pagination stays
// correct.
func (s *EntityStore) List(ctx context.Context, opts store.ListEntitiesOptions) ([]*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE org_id = $1 AND deleted_at IS NULL`

	args := []any{opts.OrgID}
	argIdx := 2

	if opts.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, opts.Kind)
		argIdx++
	}

	if len(opts.ExcludeCreatedBy) > 0 {
		query += fmt.Sprintf(" AND created_by != ALL($%d)", argIdx)
		args = append(args, opts.ExcludeCreatedBy)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit >= 0 {
		limit := 100
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var entities []*models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return entities, nil
}

// Delete soft-deletes an entity.
func (s *EntityStore) Delete(ctx context.Context, entityID uuid.UUID) error {
	query := `
		UPDATE entities
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE entity_id = $1
		  AND deleted_at IS NULL
	`

	result, err := s.pool.Exec(ctx, query, entityID)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrEntityNotFound
	}

	log.Debug().Str("entity_id", entityID.String()).Msg("Soft-deleted entity")

	return nil
}
