package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// ShareStore implements store.ShareStore using PostgreSQL. Grant uniqueness
// rides on the shared_access_grant_key constraint over all four key fields.
type ShareStore struct {
	pool *pgxpool.Pool
}

// NewShareStore creates a new PostgreSQL-backed share store.
// It shares the connection pool with other stores.
func NewShareStore(pool *pgxpool.Pool) *ShareStore {
	return &ShareStore{
		pool: pool,
	}
}

const shareColumns = `
	share_id, resource_type, resource_id,
	shared_by_id, shared_with_id, level, created_at
`

func scanShare(row rowScanner) (*models.SharedAccess, error) {
	var sh models.SharedAccess
	err := row.Scan(
		&sh.ShareID,
		&sh.ResourceType,
		&sh.ResourceID,
		&sh.SharedByID,
		&sh.SharedWithID,
		&sh.Level,
		&sh.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// Grant creates a new share.
func (s *ShareStore) Grant(ctx context.Context, share *models.SharedAccess) error {
	query := `
		INSERT INTO shared_access (
			share_id, resource_type, resource_id,
			shared_by_id, shared_with_id, level
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.pool.Exec(ctx, query,
		share.ShareID,
		share.ResourceType,
		share.ResourceID,
		share.SharedByID,
		share.SharedWithID,
		share.Level,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("resource_type", string(share.ResourceType)).
		Str("resource_id", share.ResourceID.String()).
		Str("shared_with_id", share.SharedWithID.String()).
		Str("level", string(share.Level)).
		Msg("Granted access")

	return nil
}

// Revoke removes one sharer's grant, leaving grants from other sharers on
// the same resource/recipient intact.
func (s *ShareStore) Revoke(ctx context.Context, resourceType models.ResourceType, resourceID, sharedByID, sharedWithID uuid.UUID) error {
	query := `
		DELETE FROM shared_access
		WHERE resource_type = $1
		  AND resource_id = $2
		  AND shared_by_id = $3
		  AND shared_with_id = $4
	`

	result, err := s.pool.Exec(ctx, query, resourceType, resourceID, sharedByID, sharedWithID)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrShareNotFound
	}

	return nil
}

// ListForUser returns every grant where the user is the recipient.
func (s *ShareStore) ListForUser(ctx context.Context, sharedWithID uuid.UUID) ([]*models.SharedAccess, error) {
	query := `SELECT ` + shareColumns + ` FROM shared_access WHERE shared_with_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, sharedWithID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var shares []*models.SharedAccess
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return shares, nil
}

// ListForResource returns every grant on a resource.
func (s *ShareStore) ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) ([]*models.SharedAccess, error) {
	query := `SELECT ` + shareColumns + ` FROM shared_access WHERE resource_type = $1 AND resource_id = $2 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var shares []*models.SharedAccess
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return shares, nil
}
