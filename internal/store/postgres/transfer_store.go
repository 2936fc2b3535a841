package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/store"
)

// TransferStore implements store.TransferStore using PostgreSQL.
//
// All cancel-window comparisons run against NOW() server-side so every app
// instance agrees on whether a window is still open, regardless of local
// clock skew.
type TransferStore struct {
	pool *pgxpool.Pool
}

// NewTransferStore creates a new PostgreSQL-backed transfer store.
// It shares the connection pool with other stores.
func NewTransferStore(pool *pgxpool.Pool) *TransferStore {
	return &TransferStore{
		pool: pool,
	}
}

const transferColumns = `
	transfer_id, entity_id, from_user_id, to_user_id,
	copy_entity_id, cancel_deadline, cancelled_at, created_at
`

func scanTransfer(row rowScanner) (*models.EntityTransfer, error) {
	var t models.EntityTransfer
	err := row.Scan(
		&t.TransferID,
		&t.EntityID,
		&t.FromUserID,
		&t.ToUserID,
		&t.CopyEntityID,
		&t.CancelDeadline,
		&t.CancelledAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Initiate moves the entity's ownership to toUserID inside one transaction:
// snapshot insert, transfer record, ownership update.
func (s *TransferStore) Initiate(ctx context.Context, entityID, toUserID uuid.UUID, window time.Duration) (*models.EntityTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	entity, err := lockEntity(ctx, tx, entityID)
	if err != nil {
		return nil, err
	}
	if entity.IsDeleted() {
		return nil, store.ErrEntityNotFound
	}

	var pending bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM entity_transfers
			WHERE entity_id = $1
			  AND cancelled_at IS NULL
			  AND cancel_deadline >= NOW()
		)
	`, entityID).Scan(&pending)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	if pending {
		return nil, store.ErrTransferPending
	}

	// Frozen snapshot row: a full copy of the entity as it stands, born
	// soft-deleted so it never surfaces in listings.
	copyEntityID := uuid.Must(uuid.NewV7())
	_, err = tx.Exec(ctx, `
		INSERT INTO entities (
			entity_id, org_id, department_id, kind, name,
			emails, phones, usernames, status, notes,
			created_by, assignee_id, version, created_at, updated_at, deleted_at
		)
		SELECT
			$1, org_id, department_id, kind, name,
			emails, phones, usernames, status, notes,
			created_by, assignee_id, version, created_at, NOW(), NOW()
		FROM entities WHERE entity_id = $2
	`, copyEntityID, entityID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	transferID := uuid.Must(uuid.NewV7())
	transfer, err := scanTransfer(tx.QueryRow(ctx, `
		INSERT INTO entity_transfers (
			transfer_id, entity_id, from_user_id, to_user_id,
			copy_entity_id, cancel_deadline
		) VALUES (
			$1, $2, $3, $4, $5, NOW() + $6 * INTERVAL '1 second'
		)
		RETURNING `+transferColumns,
		transferID,
		entityID,
		entity.AssigneeID,
		toUserID,
		copyEntityID,
		int64(window.Seconds()),
	))
	if err != nil {
		return nil, mapPostgresError(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE entities
		SET
			assignee_id = $1,
			is_transferred = TRUE,
			transferred_to_id = $1,
			transferred_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE entity_id = $2
	`, toUserID, entityID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	log.Info().
		Str("transfer_id", transfer.TransferID.String()).
		Str("entity_id", entityID.String()).
		Str("from_user_id", transfer.FromUserID.String()).
		Str("to_user_id", toUserID.String()).
		Time("cancel_deadline", transfer.CancelDeadline).
		Msg("Initiated entity transfer")

	return transfer, nil
}

// Cancel rolls the transfer back, restoring only the ownership fields from
// the snapshot.
func (s *TransferStore) Cancel(ctx context.Context, transferID uuid.UUID) (*models.Entity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	// Claim the transfer if and only if the window is still open. The
	// deadline check happens on the database clock inside the same
	// statement that closes the transfer, so two racing cancels or a
	// cancel racing the deadline cannot both win.
	result, err := tx.Exec(ctx, `
		UPDATE entity_transfers
		SET cancelled_at = NOW()
		WHERE transfer_id = $1
		  AND cancelled_at IS NULL
		  AND cancel_deadline >= NOW()
	`, transferID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		// Work out which rejection this is.
		transfer, err := scanTransfer(tx.QueryRow(ctx,
			`SELECT `+transferColumns+` FROM entity_transfers WHERE transfer_id = $1`, transferID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, store.ErrTransferNotFound
			}
			return nil, mapPostgresError(err)
		}
		if transfer.CancelledAt != nil {
			return nil, store.ErrTransferClosed
		}
		return nil, store.ErrTransferWindowExpired
	}

	transfer, err := scanTransfer(tx.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM entity_transfers WHERE transfer_id = $1`, transferID))
	if err != nil {
		return nil, mapPostgresError(err)
	}

	// Restore the ownership allow-list from the snapshot: org, department,
	// assignee. Everything else on the live row stays as edited under the
	// new owner.
	entity, err := scanEntity(tx.QueryRow(ctx, `
		UPDATE entities
		SET
			org_id = snapshot.org_id,
			department_id = snapshot.department_id,
			assignee_id = snapshot.assignee_id,
			is_transferred = FALSE,
			transferred_to_id = NULL,
			transferred_at = NULL,
			version = entities.version + 1,
			updated_at = NOW()
		FROM (
			SELECT org_id, department_id, assignee_id
			FROM entities WHERE entity_id = $1
		) AS snapshot
		WHERE entities.entity_id = $2
		RETURNING `+prefixedEntityColumns("entities"),
		transfer.CopyEntityID, transfer.EntityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEntityNotFound
		}
		return nil, mapPostgresError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	log.Info().
		Str("transfer_id", transferID.String()).
		Str("entity_id", transfer.EntityID.String()).
		Str("restored_assignee_id", entity.AssigneeID.String()).
		Msg("Cancelled entity transfer")

	return entity, nil
}

// Get retrieves a transfer record by ID.
func (s *TransferStore) Get(ctx context.Context, transferID uuid.UUID) (*models.EntityTransfer, error) {
	transfer, err := scanTransfer(s.pool.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM entity_transfers WHERE transfer_id = $1`, transferID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTransferNotFound
		}
		return nil, mapPostgresError(err)
	}

	return transfer, nil
}

// GetPendingForEntity returns the entity's transfer still inside its cancel
// window.
func (s *TransferStore) GetPendingForEntity(ctx context.Context, entityID uuid.UUID) (*models.EntityTransfer, error) {
	transfer, err := scanTransfer(s.pool.QueryRow(ctx, `
		SELECT `+transferColumns+`
		FROM entity_transfers
		WHERE entity_id = $1
		  AND cancelled_at IS NULL
		  AND cancel_deadline >= NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTransferNotFound
		}
		return nil, mapPostgresError(err)
	}

	return transfer, nil
}
